package apiclient

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Endpoint is one method+path an operation can be sent to.
type Endpoint struct {
	Method string
	Path   string
}

// Candidates is an ordered list of endpoints that implement the same
// operation. Older API deployments only expose the later entries.
type Candidates []Endpoint

// Do tries each endpoint in order and stops at the first one that does not
// answer 404. It returns the endpoint that produced the result.
func (cs Candidates) Do(ctx context.Context, c *Client, body, out interface{}) (Endpoint, error) {
	if len(cs) == 0 {
		return Endpoint{}, errors.New("apiclient: no candidate endpoints")
	}
	var err error
	for i, ep := range cs {
		err = c.Do(ctx, ep.Method, ep.Path, body, out)
		if err == nil {
			return ep, nil
		}
		if !IsNotFound(err) || i == len(cs)-1 {
			return ep, err
		}
		c.logger.Info("endpoint not found, trying next candidate",
			zap.String("method", ep.Method),
			zap.String("path", ep.Path),
			zap.String("next", cs[i+1].Path))
	}
	return cs[len(cs)-1], err
}
