package controllers

import (
	"net/http"

	"github.com/greenbasket/storefront/api/responses"
	"github.com/greenbasket/storefront/internal/adminqueue"
	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/logger"
)

// queueQueryFromRequest maps the shared admin list parameters:
// ?status=pending&q=ana&sort=amount&dir=desc
func queueQueryFromRequest(r *http.Request) adminqueue.Query {
	params := r.URL.Query()
	return adminqueue.Query{
		Status: enums.ReviewStatus(params.Get("status")),
		Search: params.Get("q"),
		SortBy: adminqueue.SortColumn(params.Get("sort")),
		Desc:   params.Get("dir") == "desc",
	}
}

// AdminQueueBadges reports which review queues grew since the admin
// last looked, so the dashboard can show its notification dots.
func AdminQueueBadges(poller *adminqueue.Poller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if poller == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue poller unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]bool{
			adminqueue.QueueTopUps:   poller.HasNewItems(adminqueue.QueueTopUps),
			adminqueue.QueueProducts: poller.HasNewItems(adminqueue.QueueProducts),
		})
	}
}

// AdminAckQueueBadge clears the new-items flag for one queue.
func AdminAckQueueBadge(poller *adminqueue.Poller, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if poller == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue poller unavailable"))
			return
		}

		queue := r.URL.Query().Get("queue")
		switch queue {
		case adminqueue.QueueTopUps, adminqueue.QueueProducts:
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown queue"))
			return
		}

		poller.AckNewItems(queue)
		responses.WriteSuccess(w, map[string]string{"queue": queue, "status": "acknowledged"})
	}
}
