package corpus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/hyperjump/resumatch/internal/config"
)

const qdrantPageSize = 256

// pointScroller is the subset of *qdrant.Client used to read a collection.
type pointScroller interface {
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
}

// NewQdrantClient creates a gRPC client from a URL such as http://localhost:6334.
func NewQdrantClient(cfg config.QdrantConfig) (*qdrant.Client, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return client, nil
}

// ScrollJobs reads every point of collection. Payload keys job_id, title and description
// are used; the point ID stands in for a missing job_id.
func ScrollJobs(ctx context.Context, client pointScroller, collection string) ([]JobRecord, error) {
	var (
		out    []JobRecord
		offset *qdrant.PointId
	)
	for {
		points, err := client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(qdrantPageSize)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", collection, err)
		}
		// The offset point is returned again as the first result of the next page.
		if offset != nil && len(points) > 0 && pointIDString(points[0].GetId()) == pointIDString(offset) {
			points = points[1:]
		}
		for _, p := range points {
			out = append(out, pointToRecord(p))
		}
		if len(points) == 0 || len(points) < qdrantPageSize-1 {
			return out, nil
		}
		offset = points[len(points)-1].GetId()
	}
}

func pointToRecord(p *qdrant.RetrievedPoint) JobRecord {
	payload := p.GetPayload()
	r := JobRecord{
		ID:          payloadString(payload, "job_id"),
		Title:       payloadString(payload, "title"),
		Description: payloadString(payload, "description"),
		Embedding:   p.GetVectors().GetVector().GetData(),
	}
	if r.ID == "" {
		r.ID = pointIDString(p.GetId())
	}
	return r
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10)
	case *qdrant.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64)
	}
	return ""
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
