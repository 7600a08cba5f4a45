package nhtsa

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

// Slice names reported in SafetyData.Unavailable.
const (
	SliceRecalls    = "recalls"
	SliceComplaints = "complaints"
	SliceRatings    = "ratings"
)

// CompleteSafetyData queries recalls, complaints and ratings concurrently
// and waits for all three. A failed query leaves its slice empty and is
// listed in Unavailable; the result is marked fallback only when every
// query failed.
func (c *Client) CompleteSafetyData(ctx context.Context, vin, makeName, model string, year int) vehicle.SafetyData {
	var (
		recalls    []vehicle.Recall
		complaints []vehicle.Complaint
		ratings    []vehicle.SafetyRating
		errs       [3]error
	)

	// Each goroutine reports through errs and returns nil so one failure
	// does not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		recalls, errs[0] = c.Recalls(ctx, vin)
		return nil
	})
	g.Go(func() error {
		complaints, errs[1] = c.Complaints(ctx, makeName, model, year)
		return nil
	})
	g.Go(func() error {
		ratings, errs[2] = c.Ratings(ctx, makeName, model, year)
		return nil
	})
	_ = g.Wait()

	out := vehicle.SafetyData{
		CategoryRatings: []vehicle.SafetyRating{},
		Recalls:         []vehicle.Recall{},
		Complaints:      []vehicle.Complaint{},
		Source:          vehicle.SourceLive,
	}
	names := [3]string{SliceRecalls, SliceComplaints, SliceRatings}
	for i, err := range errs {
		if err != nil {
			out.Unavailable = append(out.Unavailable, names[i])
			logger.Log.WithField("slice", names[i]).Warnf("safety data degraded: %v", err)
		}
	}
	if errs[0] == nil {
		out.Recalls = recalls
	}
	if errs[1] == nil {
		out.Complaints = complaints
	}
	if errs[2] == nil {
		out.CategoryRatings = ratings
		out.OverallRating = OverallRating(ratings)
	}
	if len(out.Unavailable) == len(names) {
		out.Source = vehicle.SourceFallback
	}
	return out
}

// OverallRating picks the Overall category, or 0 when it is unrated.
func OverallRating(ratings []vehicle.SafetyRating) int {
	for _, r := range ratings {
		if r.Category == OverallCategory {
			return r.Rating
		}
	}
	return 0
}
