package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/load"
	"salesetl/internal/objectstore/file"
	"salesetl/internal/query"
	"salesetl/internal/storage"
	_ "salesetl/internal/storage/sqlite"
)

const bucket = "sales-data"

const rawCSV = `Region,Country,Item Type,Sales Channel,Order Priority,Order Date,Order ID,Ship Date,Units Sold,Unit Price,Unit Cost,Total Revenue,Total Cost,Total Profit
Europe,France,Fruits,Online,H,1/1/2020,1,1/3/2020,10,2,1,20,10,10
Europe,Spain,Fruits,Offline,L,1/1/2020,2,1/4/2020,5,4,2,20,10,10
Asia,Japan,Snacks,Online,M,2/1/2020,3,2/2/2020,1,50,20,50,20,30
Asia,Japan,Snacks,Online,M,2/1/2020,3,2/2/2020,1,50,20,50,20,30
`

func newHandler(t *testing.T) *Handler {
	t.Helper()
	store := file.New(t.TempDir())
	if err := store.Put(context.Background(), bucket, "sales.csv", strings.NewReader(rawCSV), "text/csv"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	dsn := filepath.Join(t.TempDir(), "sales.db")
	return &Handler{
		Store: store,
		OpenRepo: func(ctx context.Context) (storage.Repository, error) {
			return storage.New(ctx, storage.Config{Kind: "sqlite", DSN: dsn, Table: "sales"})
		},
		DB:          config.DB{Kind: "sqlite", DSN: dsn},
		Load:        load.Options{Table: "sales", BatchSize: 2},
		Placeholder: query.Question,
		Now:         func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestHandler_EndToEnd(t *testing.T) {
	h := newHandler(t)
	ctx := context.Background()

	out, err := h.Transform(ctx, TransformEvent{Bucket: bucket, Filename: "sales.csv"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	tr, ok := out.(TransformResponse)
	if !ok {
		t.Fatalf("Transform returned %T", out)
	}
	if tr.RowsTransformed != 3 || tr.Bucket != bucket {
		t.Fatalf("transform = %+v", tr)
	}
	if want := "Transformed 3 rows. AvgRevenue=30 AvgProfit=16.666666666666667"; !strings.HasPrefix(tr.Value, "Transformed 3 rows. AvgRevenue=30 AvgProfit=16.66") {
		t.Fatalf("Value = %q, want ~%q", tr.Value, want)
	}

	lr, err := h.LoadCSV(ctx, LoadEvent{Bucket: bucket, Key: tr.OutputKey})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	lb := lr.Body.(LoadBody)
	if lr.StatusCode != 200 || lb.RowsRead != 3 || lb.RowsInserted != 3 {
		t.Fatalf("load = %d %+v", lr.StatusCode, lb)
	}
	if lb.Message != "LoadCSV complete. rowsRead=3, rowsInserted=3" {
		t.Fatalf("message = %q", lb.Message)
	}

	qr, err := h.Query(ctx, query.Request{
		Filters:      map[string]string{"Region": "Europe"},
		GroupBy:      []string{"Region"},
		Aggregations: map[string]string{"revenue": "SUM(Total Revenue)", "orders": "COUNT(Order ID)"},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	qb := qr.Body.(QueryBody)
	if qb.RowsReturned != 1 {
		t.Fatalf("rows_returned = %d", qb.RowsReturned)
	}
	row := qb.Results[0]
	if row["region"] != "Europe" || row["revenue"] != float64(40) || row["orders"] != int64(2) {
		t.Fatalf("row = %#v", row)
	}
	if !strings.Contains(qb.SQL, "WHERE region = ?") {
		t.Fatalf("query_sql = %s", qb.SQL)
	}
}

func TestHandler_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("transform missing input", func(t *testing.T) {
		h := newHandler(t)
		out, err := h.Transform(ctx, TransformEvent{Bucket: bucket, Filename: "missing.csv"})
		if err == nil {
			t.Fatal("expected error")
		}
		resp := out.(Response)
		if resp.StatusCode != 500 || !strings.Contains(resp.Body.(MessageBody).Message, "object not found") {
			t.Fatalf("resp = %+v", resp)
		}
	})

	t.Run("load missing credentials", func(t *testing.T) {
		h := newHandler(t)
		h.DB = config.DB{Kind: "mysql", Host: "db"}
		resp, err := h.LoadCSV(ctx, LoadEvent{Bucket: bucket, Key: "k"})
		if err == nil {
			t.Fatal("expected error")
		}
		msg := resp.Body.(MessageBody).Message
		if !strings.HasPrefix(msg, "Load failed: ") || !strings.Contains(msg, "DB_USER, DB_PASSWORD") {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("load open failure", func(t *testing.T) {
		h := newHandler(t)
		boom := errors.New("connection refused")
		h.OpenRepo = func(context.Context) (storage.Repository, error) { return nil, boom }
		resp, err := h.LoadCSV(ctx, LoadEvent{Bucket: bucket, Key: "k"})
		if !errors.Is(err, boom) || resp.StatusCode != 500 {
			t.Fatalf("resp=%+v err=%v", resp, err)
		}
	})

	t.Run("query invalid function", func(t *testing.T) {
		h := newHandler(t)
		opened := false
		h.OpenRepo = func(context.Context) (storage.Repository, error) {
			opened = true
			return nil, errors.New("unexpected")
		}
		resp, err := h.Query(ctx, query.Request{Aggregations: map[string]string{"x": "FOO(Total Revenue)"}})
		if !errors.Is(err, query.ErrInvalidFunction) {
			t.Fatalf("err = %v", err)
		}
		if opened {
			t.Fatal("database opened for an invalid request")
		}
		if resp.StatusCode != 500 || resp.Body.(ErrorBody).Error == "" {
			t.Fatalf("resp = %+v", resp)
		}
	})
}

func TestInvoke_DecodesEvents(t *testing.T) {
	h := newHandler(t)
	ctx := context.Background()

	out, err := h.Invoke(ctx, "transform", strings.NewReader(`{"bucketname":"sales-data","filename":"sales.csv"}`))
	if err != nil {
		t.Fatalf("Invoke transform: %v", err)
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(out); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"value", "rows_transformed", "avg_revenue", "avg_profit", "output_key", "bucketname"} {
		if _, ok := got[k]; !ok {
			t.Errorf("response missing %q: %s", k, buf.String())
		}
	}

	if _, err := h.Invoke(ctx, "query", strings.NewReader(`{not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := h.Invoke(ctx, "nope", strings.NewReader(`{}`)); err == nil {
		t.Fatal("expected unknown stage error")
	}
}
