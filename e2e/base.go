package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"council-lab/client"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	API    *client.Client
}

// SetupSuite loads the environment configuration and checks the server
// answers before any scenario runs.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.API = client.New(s.Config.ServerAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(s.API.Healthz(ctx), "Server not reachable at "+s.Config.ServerAddr)
}

// Step prints a colorized header for the step, then runs fn with a
// bounded context and logs how long the step took.
func (s *BaseSuite) Step(name string, fn func(ctx context.Context)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	fn(ctx)
	s.T().Logf("STEP %q done in %v", name, time.Since(start))
}

// Dump logs v as indented JSON when E2E_DEBUG_JSON is enabled.
func (s *BaseSuite) Dump(label string, v any) {
	if !s.Config.DebugJSON {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	s.Require().NoError(err)
	s.T().Logf("%s:\n%s", label, data)
}
