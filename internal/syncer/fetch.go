package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

const maxBody = 16 << 20

// RemoteResource is one entry of a remote GET /api/resources response.
type RemoteResource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// get fetches url and fails on transport errors, timeouts and non-2xx
// statuses.
func (r *Reconciler) get(ctx context.Context, step model.SyncStep, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SyncError{Step: step, URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", "family-fleet-sync")

	log.Debug().Str("url", url).Str("step", string(step)).Msg("sync fetch start")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &model.SyncError{Step: step, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.SyncError{Step: step, URL: url, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &model.SyncError{Step: step, URL: url, Cause: err}
	}
	if len(body) > maxBody {
		return nil, &model.SyncError{Step: step, URL: url, Cause: errors.New("response too large")}
	}
	return body, nil
}

func parseResources(url string, body []byte) ([]RemoteResource, error) {
	var out []RemoteResource
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &model.SyncError{Step: model.StepParseResources, URL: url, Cause: err}
	}
	// names stay as sent; matching is exact
	for i := range out {
		out[i].Color = strings.TrimSpace(out[i].Color)
	}
	return out, nil
}
