package main

import (
	"testing"

	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ListTestSuite struct {
	CommandTestSuite
}

func (s *ListTestSuite) SetupTest() {
	s.CommandTestSuite.SetupTest()
	s.WithAdapter().
		WithPeripheral(TestDeviceAddress1, "HC-05").
		WithPeripheral(TestDeviceAddress2, "Speaker").
		WithPeripheral("00:00:00:00:00:03", "linvor")
}

func (s *ListTestSuite) TestTable() {
	out, err := s.ExecuteCommand("list")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T(), testutils.WithIgnoreTrailingWhitespace(true)).Assert(out, `
ADDRESS            NAME     ALLOWED  SELECTED
00:00:00:00:00:01  HC-05    yes
00:00:00:00:00:02  Speaker  no
00:00:00:00:00:03  linvor   yes      *
`)
}

func (s *ListTestSuite) TestJSON() {
	out, err := s.ExecuteCommand("list", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{"address": "00:00:00:00:00:01", "name": "HC-05", "allowed": true, "selected": false},
		{"address": "00:00:00:00:00:02", "name": "Speaker", "allowed": false, "selected": false},
		{"address": "00:00:00:00:00:03", "name": "linvor", "allowed": true, "selected": true}
	]`)
}

func (s *ListTestSuite) TestCustomAllowList() {
	out, err := s.ExecuteCommand("list", "-f", "json", "--allow", "Speaker")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{"name": "HC-05", "allowed": false, "selected": false},
		{"name": "Speaker", "allowed": true, "selected": true},
		{"name": "linvor", "allowed": false, "selected": false}
	]`)
}

func (s *ListTestSuite) TestInvalidFormat() {
	_, err := s.ExecuteCommand("list", "--format", "csv")
	s.Require().Error(err)
	s.Contains(err.Error(), "output_format")
}

func (s *ListTestSuite) TestUnavailableAdapter() {
	s.WithAdapter().Unavailable()

	_, err := s.ExecuteCommand("list")
	s.ErrorIs(err, device.ErrAdapterUnavailable)
}

func TestListTestSuite(t *testing.T) {
	suite.Run(t, new(ListTestSuite))
}

type EmptyListTestSuite struct {
	CommandTestSuite
}

func (s *EmptyListTestSuite) TestNoDevices() {
	out, err := s.ExecuteCommand("list")
	s.Require().NoError(err)
	s.Equal("No paired devices\n", out)

	out, err = s.ExecuteCommand("list", "-f", "json")
	s.Require().NoError(err)
	s.JSONEq("[]", out)
}

func TestEmptyListTestSuite(t *testing.T) {
	suite.Run(t, new(EmptyListTestSuite))
}
