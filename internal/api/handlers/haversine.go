package handlers

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/adapters/jsoncol"
	"haversine-udf/internal/api/dto"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/haversine"
	"haversine-udf/internal/platform/metrics"
	"haversine-udf/internal/services"
	"math"
	"net/http"

	"github.com/cespare/xxhash/v2"
)

type HaversineHandler struct {
	Columns  *jsoncol.Adapter
	UDF      *arrowudf.Func
	Runner   *services.Runner
	Parallel services.ParallelOptions
}

// Distances computes one distance per row of a JSON column batch.
func (h *HaversineHandler) Distances(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.HaversineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cols, err := h.Columns.Columns(req.Lon0, req.Lat0, req.Lon1, req.Lat1)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	dist, err := services.MapColumnsParallel(r.Context(), cols, haversine.Distance, h.Parallel)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	out, err := h.Columns.FromFloat64Array(dist)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	metrics.RowsTotal.WithLabelValues("json").Add(float64(dist.Len()))

	writeJSON(w, r, http.StatusOK, dto.HaversineResponse{DistancesKm: out, Count: len(out)})
}

// Arrow maps an Arrow IPC stream of coordinate batches to a stream of
// distance_km batches. Column names may be overridden with ?cols=a,b,c,d.
func (h *HaversineHandler) Arrow(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	names, err := arrowudf.ParseColumnNames(r.URL.Query().Get("cols"))
	if err != nil {
		writeErr(w, r, badRequest(err.Error()))
		return
	}

	var buf bytes.Buffer
	rows, err := h.UDF.CallStream(r.Body, &buf, names)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	metrics.RowsTotal.WithLabelValues("arrow").Add(float64(rows))

	w.Header().Set("Content-Type", arrowudf.StreamContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		writeFailed(r, err)
	}
}

// Average runs one of the registered calculators over the request columns.
func (h *HaversineHandler) Average(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.AverageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	method := req.Method
	if method == "" {
		method = services.MethodVector
	}

	cols, err := h.Columns.Columns(req.Lon0, req.Lat0, req.Lon1, req.Lat1)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	res, err := h.Runner.Run(r.Context(), method, requestSource{cols: cols})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	metrics.RowsTotal.WithLabelValues("average").Add(float64(cols.Len()))

	writeJSON(w, r, http.StatusOK, dto.AverageResponse{
		Method:    res.Method,
		AverageKm: res.Average,
		Count:     cols.Len(),
		Cached:    res.Cached,
	})
}

// A point source over columns decoded from one request.
type requestSource struct {
	cols domain.CoordinateColumns
}

func (s requestSource) Name() string { return "request" }

// Fingerprint hashes the exact float64 bits and validity of every row.
func (s requestSource) Fingerprint(ctx context.Context) (string, error) {
	h := xxhash.New()
	buf := make([]byte, 0, 8)
	for _, col := range [][]float64{s.cols.Lon0, s.cols.Lat0, s.cols.Lon1, s.cols.Lat1} {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(len(col)))
		_, _ = h.Write(buf)
		for _, v := range col {
			buf = binary.LittleEndian.AppendUint64(buf[:0], math.Float64bits(v))
			_, _ = h.Write(buf)
		}
	}
	for i := 0; i < s.cols.Len(); i++ {
		if s.cols.ValidAt(i) {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func (s requestSource) LoadColumns(ctx context.Context) (domain.CoordinateColumns, error) {
	return s.cols, nil
}
