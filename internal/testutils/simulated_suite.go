package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/sppcli/internal/device/simulated"
	"github.com/srg/sppcli/internal/devicefactory"
	"github.com/stretchr/testify/suite"
)

// SimulatedAdapterSuite swaps devicefactory.AdapterFactory for one that
// builds a simulated adapter, whatever kind is requested.
//
// Configure the peripherals before the code under test asks for an adapter:
//
//	func (s *RunSuite) TestExchange() {
//	    s.WithAdapter().WithPeripheral("00:11:22:33:44:55", "HC-05").WithResponse("OK\n")
//	    out, err := s.ExecuteCommand("run")
//	    ...
//	}
type SimulatedAdapterSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	// Adapter is the last adapter handed out by the factory during the current test.
	Adapter *simulated.Adapter

	builder         *simulated.AdapterBuilder
	originalFactory func(devicefactory.Kind, simulated.AdapterConfig, *logrus.Logger) (devicefactory.Adapter, error)
}

func (s *SimulatedAdapterSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.originalFactory = devicefactory.AdapterFactory
}

// SetupTest installs the factory. The adapter is built from WithAdapter's
// configuration when the factory is called; without configuration it is
// available and has no bonded devices.
func (s *SimulatedAdapterSuite) SetupTest() {
	s.WithAdapter()
	devicefactory.AdapterFactory = func(_ devicefactory.Kind, _ simulated.AdapterConfig, logger *logrus.Logger) (devicefactory.Adapter, error) {
		s.Adapter = simulated.NewAdapter(s.builder.Config(), logger)
		return s.Adapter, nil
	}
}

func (s *SimulatedAdapterSuite) TearDownTest() {
	devicefactory.AdapterFactory = s.originalFactory
	s.builder = nil
	s.Adapter = nil
}

// WithAdapter returns the builder configuring the adapters of the current test.
func (s *SimulatedAdapterSuite) WithAdapter() *simulated.AdapterBuilder {
	if s.builder == nil {
		s.builder = simulated.NewAdapterBuilder()
	}
	return s.builder
}
