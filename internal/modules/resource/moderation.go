package resource

import (
	"context"
	"net/http"
	"net/url"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
)

// Moderator approves and deletes comments. Each operation is sent to the
// admin-scoped endpoint first and to the legacy comment endpoint when the
// deployment does not know the admin one.
type Moderator struct{ api *apiclient.Client }

func NewModerator(api *apiclient.Client) *Moderator { return &Moderator{api: api} }

// ApproveCandidates lists the endpoints tried, in order, to approve id.
func ApproveCandidates(id string) apiclient.Candidates {
	id = url.PathEscape(id)
	return apiclient.Candidates{
		{Method: http.MethodPut, Path: "/admin/comments/" + id + "/approve"},
		{Method: http.MethodPut, Path: "/comments/" + id + "/approve"},
	}
}

// DeleteCandidates lists the endpoints tried, in order, to delete id.
func DeleteCandidates(id string) apiclient.Candidates {
	id = url.PathEscape(id)
	return apiclient.Candidates{
		{Method: http.MethodDelete, Path: "/admin/comments/" + id},
		{Method: http.MethodDelete, Path: "/comments/" + id},
	}
}

func (m *Moderator) Approve(ctx context.Context, id string) error {
	_, err := ApproveCandidates(id).Do(ctx, m.api, nil, nil)
	return err
}

// Delete removes a confirmed comment; 501 maps to ComingSoon like the
// other admin deletes.
func (m *Moderator) Delete(ctx context.Context, id string, confirmed bool) (Outcome, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	_, err := DeleteCandidates(id).Do(ctx, m.api, nil, nil)
	return OutcomeOf(err)
}
