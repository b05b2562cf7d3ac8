package ipmi

import "errors"

var (
	// ErrTransport indicates that the IPMI command could not be executed,
	// e.g. the gateway is unreachable or the call timed out
	ErrTransport = errors.New("ipmi transport failure")

	// ErrParse indicates that the IPMI command executed but produced
	// output this implementation does not understand
	ErrParse = errors.New("unexpected ipmi output")
)
