package gateway

import (
	"fmt"
	"strings"
)

// Environment selects the gateway endpoint
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

// Gateway endpoints
const (
	ProductionURL = "https://tlt.allinpay.com/aipg/ProcessServlet"
	TestURL       = "https://113.108.182.3/aipg/ProcessServlet"
)

// ParseEnvironment parses an environment name. The empty string selects
// Production.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case "", Production:
		return Production, nil
	case Development:
		return Development, nil
	case Test:
		return Test, nil
	default:
		return "", fmt.Errorf("unknown environment %q", s)
	}
}

// URL returns the gateway endpoint of the environment.
func (e Environment) URL() string {
	if e == Production || e == "" {
		return ProductionURL
	}
	return TestURL
}

// VerifiesTLS reports whether the gateway certificate is verified. The test
// host is reached by IP address and its certificate does not match.
func (e Environment) VerifiesTLS() bool {
	return e == Production || e == ""
}

func (e Environment) String() string {
	if e == "" {
		return string(Production)
	}
	return string(e)
}
