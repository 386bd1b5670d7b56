package main

import (
	"bytes"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/sppcli/internal/testutils"
)

// Test device addresses for consistent simulated device identification
const (
	TestDeviceAddress1 = "00:00:00:00:00:01"
	TestDeviceAddress2 = "00:00:00:00:00:02"
)

// CommandTestSuite extends SimulatedAdapterSuite with command testing utilities.
// All cmd/sppcli test suites should embed this instead of SimulatedAdapterSuite.
type CommandTestSuite struct {
	testutils.SimulatedAdapterSuite
}

// SetupTest isolates each test from the user's config file and from flags
// set by earlier tests.
func (s *CommandTestSuite) SetupTest() {
	s.T().Setenv("XDG_CONFIG_HOME", s.T().TempDir())
	resetFlags(rootCmd)
	s.SimulatedAdapterSuite.SetupTest()
}

// ExecuteCommand runs the root command with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
