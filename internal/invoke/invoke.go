// Package invoke adapts the transform, load and query stages to their JSON
// event and response contracts. Each call owns its resources: a database
// session is opened on entry and closed before returning.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/load"
	"salesetl/internal/metrics"
	"salesetl/internal/objectstore"
	"salesetl/internal/query"
	"salesetl/internal/storage"
	"salesetl/internal/transform"
)

// TransformEvent names the raw file to transform.
type TransformEvent struct {
	Bucket   string `json:"bucketname"`
	Filename string `json:"filename"`
}

// TransformResponse is the success payload of a transform.
type TransformResponse struct {
	Value           string  `json:"value"`
	RowsTransformed int64   `json:"rows_transformed"`
	AvgRevenue      float64 `json:"avg_revenue"`
	AvgProfit       float64 `json:"avg_profit"`
	OutputKey       string  `json:"output_key"`
	Bucket          string  `json:"bucketname"`
}

// LoadEvent names the transformed file to load.
type LoadEvent struct {
	Bucket string `json:"bucketname"`
	Key    string `json:"key"`
}

// LoadBody is the body of a successful load.
type LoadBody struct {
	Message      string `json:"message"`
	RowsRead     int64  `json:"rows_read"`
	RowsInserted int64  `json:"rows_inserted"`
}

// QueryBody is the body of a successful query.
type QueryBody struct {
	SQL          string           `json:"query_sql"`
	RowsReturned int              `json:"rows_returned"`
	Results      []map[string]any `json:"results"`
}

// MessageBody carries a transform or load failure.
type MessageBody struct {
	Message string `json:"message"`
}

// ErrorBody carries a query failure.
type ErrorBody struct {
	Error string `json:"error"`
}

// Response is a status-coded envelope.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// OpenRepoFunc opens a database session for one invocation.
type OpenRepoFunc func(ctx context.Context) (storage.Repository, error)

// Handler serves the three stages against shared collaborators.
type Handler struct {
	Store       objectstore.Store
	OpenRepo    OpenRepoFunc
	DB          config.DB
	Load        load.Options
	Placeholder query.Placeholder

	// Now stamps transform output keys; nil means time.Now.
	Now func() time.Time
}

// Transform runs the transform stage. On failure it returns the error
// envelope together with the error.
func (h *Handler) Transform(ctx context.Context, ev TransformEvent) (any, error) {
	if ev.Bucket == "" || ev.Filename == "" {
		err := fmt.Errorf("invoke: transform event requires bucketname and filename")
		return failure(MessageBody{Message: err.Error()}), err
	}
	p := transform.New(h.Store)
	if h.Now != nil {
		p.Now = h.Now
	}
	res, err := p.Run(ctx, transform.Input{Bucket: ev.Bucket, Key: ev.Filename})
	if err != nil {
		return failure(MessageBody{Message: err.Error()}), err
	}
	return TransformResponse{
		Value:           res.Summary(),
		RowsTransformed: res.RowsTransformed,
		AvgRevenue:      res.AvgRevenue,
		AvgProfit:       res.AvgProfit,
		OutputKey:       res.OutputKey,
		Bucket:          res.Bucket,
	}, nil
}

// LoadCSV runs the load stage.
func (h *Handler) LoadCSV(ctx context.Context, ev LoadEvent) (Response, error) {
	fail := func(err error) (Response, error) {
		return failure(MessageBody{Message: "Load failed: " + err.Error()}), err
	}
	if ev.Bucket == "" || ev.Key == "" {
		return fail(fmt.Errorf("invoke: load event requires bucketname and key"))
	}
	if err := h.DB.CheckCredentials(); err != nil {
		return fail(err)
	}
	repo, err := h.OpenRepo(ctx)
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	defer repo.Close()

	res, err := load.New(h.Store, repo, h.Load).Load(ctx, load.Input{Bucket: ev.Bucket, Key: ev.Key})
	if err != nil {
		return fail(err)
	}
	msg := fmt.Sprintf("LoadCSV complete. rowsRead=%d, rowsInserted=%d", res.RowsRead, res.RowsInserted)
	log.Printf("load: %s", msg)
	return Response{
		StatusCode: http.StatusOK,
		Body:       LoadBody{Message: msg, RowsRead: res.RowsRead, RowsInserted: res.RowsInserted},
	}, nil
}

// Query builds and runs req.
func (h *Handler) Query(ctx context.Context, req query.Request) (resp Response, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage("query", err, time.Since(start)) }()

	fail := func(err error) (Response, error) {
		log.Printf("query: error: %v", err)
		return failure(ErrorBody{Error: err.Error()}), err
	}
	if err := h.DB.CheckCredentials(); err != nil {
		return fail(err)
	}

	q, err := query.Builder{Table: h.Load.Table, Placeholder: h.Placeholder}.Build(req)
	if err != nil {
		return fail(err)
	}
	log.Printf("query: sql=%s", q.SQL)
	log.Printf("query: params=%v", q.Args)

	repo, err := h.OpenRepo(ctx)
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	defer repo.Close()

	rows, err := repo.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return fail(err)
	}
	log.Printf("query: rows_returned=%d", len(rows))
	return Response{
		StatusCode: http.StatusOK,
		Body:       QueryBody{SQL: q.SQL, RowsReturned: len(rows), Results: rows},
	}, nil
}

// Invoke decodes a JSON event for stage ("transform", "load" or "query"),
// runs it and returns the response payload.
func (h *Handler) Invoke(ctx context.Context, stage string, event io.Reader) (any, error) {
	dec := json.NewDecoder(event)
	switch stage {
	case "transform":
		var ev TransformEvent
		if err := dec.Decode(&ev); err != nil {
			err = fmt.Errorf("invoke: decode transform event: %w", err)
			return failure(MessageBody{Message: err.Error()}), err
		}
		return h.Transform(ctx, ev)
	case "load":
		var ev LoadEvent
		if err := dec.Decode(&ev); err != nil {
			err = fmt.Errorf("invoke: decode load event: %w", err)
			return failure(MessageBody{Message: "Load failed: " + err.Error()}), err
		}
		return h.LoadCSV(ctx, ev)
	case "query":
		var req query.Request
		if err := dec.Decode(&req); err != nil {
			err = fmt.Errorf("invoke: decode query event: %w", err)
			return failure(ErrorBody{Error: err.Error()}), err
		}
		return h.Query(ctx, req)
	default:
		return nil, fmt.Errorf("invoke: unknown stage %q", stage)
	}
}

func failure(body any) Response {
	return Response{StatusCode: http.StatusInternalServerError, Body: body}
}
