package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/infrastructure/accord"
	"myfi.backend/internal/interfaces/http/response"
	"myfi.backend/pkg/logger"
)

const (
	// maxIngestBody bounds an uploaded feed payload
	maxIngestBody = 64 << 20

	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// ReferenceIngestService applies raw feeds to the reference store
type ReferenceIngestService interface {
	IngestAmcBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error)
	IngestSchemeBatch(ctx context.Context, tables entities.SchemeTables) (entities.IngestReport, error)
	IngestNavBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error)
}

// FeedSource downloads raw feeds for a feed date
type FeedSource interface {
	FetchAmcs(ctx context.Context, date string) (entities.RawBatch, error)
	FetchSchemeTables(ctx context.Context, date string) (entities.SchemeTables, error)
	FetchNavHistory(ctx context.Context, date string) (entities.RawBatch, error)
}

// AdminIngestHandler triggers an ingestion pass for one feed
type AdminIngestHandler struct {
	ingest ReferenceIngestService
	source FeedSource
	now    func() time.Time
}

// NewAdminIngestHandler creates the handler. source may be nil, in which case
// only uploaded payloads are accepted.
func NewAdminIngestHandler(ingest ReferenceIngestService, source FeedSource) *AdminIngestHandler {
	return &AdminIngestHandler{ingest: ingest, source: source, now: time.Now}
}

// Ingest runs the named feed from the request body, or from the upstream feed
// for ?date= (ddmmyyyy, default yesterday) when the body is empty.
// POST /api/v1/admin/ingest/:feed
func (h *AdminIngestHandler) Ingest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIngestBody))
	if err != nil {
		response.Error(c, domainerrors.InvalidRequest("Failed to read request body"))
		return
	}
	uploaded := len(bytes.TrimSpace(body)) > 0
	if !uploaded && h.source == nil {
		response.Error(c, domainerrors.InvalidRequest("Request body is required"))
		return
	}

	ctx := c.Request.Context()
	date := c.DefaultQuery("date", accord.FeedDate(h.now().AddDate(0, 0, -1)))

	var report entities.IngestReport
	switch c.Param("feed") {
	case "amc":
		var batch entities.RawBatch
		if uploaded {
			err = decodeFeed(body, &batch)
		} else {
			batch, err = h.source.FetchAmcs(ctx, date)
			err = upstreamFailure(ctx, err)
		}
		if err == nil {
			report, err = h.ingest.IngestAmcBatch(ctx, batch)
		}
	case "schemes":
		var tables entities.SchemeTables
		if uploaded {
			err = decodeFeed(body, &tables)
		} else {
			tables, err = h.source.FetchSchemeTables(ctx, date)
			err = upstreamFailure(ctx, err)
		}
		if err == nil {
			report, err = h.ingest.IngestSchemeBatch(ctx, tables)
		}
	case "nav":
		var batch entities.RawBatch
		if uploaded {
			err = decodeFeed(body, &batch)
		} else {
			batch, err = h.source.FetchNavHistory(ctx, date)
			err = upstreamFailure(ctx, err)
		}
		if err == nil {
			report, err = h.ingest.IngestNavBatch(ctx, batch)
		}
	default:
		response.Error(c, domainerrors.NotFound("Unknown feed"))
		return
	}

	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

func upstreamFailure(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logger.Error(ctx, "Upstream feed fetch failed", zap.Error(err))
	return domainerrors.NewAppError(http.StatusBadGateway, CodeUpstreamUnavailable, "Upstream feed unavailable", err)
}

func decodeFeed(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return domainerrors.InvalidRequest("Malformed feed payload: " + err.Error())
	}
	return nil
}
