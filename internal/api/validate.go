package api

import (
	"fmt"
	"math"

	"routegeo/internal/model"
)

func validateDecodeRequest(req *model.DecodeRequest, maxLen int) error {
	if maxLen > 0 && len(req.Encoded) > maxLen {
		return fmt.Errorf("encoded exceeds %d bytes", maxLen)
	}
	if req.Tolerance < 0 || math.IsNaN(req.Tolerance) || math.IsInf(req.Tolerance, 0) {
		return fmt.Errorf("tolerance must be a finite number >= 0")
	}
	return nil
}

func validatePoint(name string, p model.GeoPoint) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%s.lat must be in [-90,90]", name)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%s.lng must be in [-180,180]", name)
	}
	return nil
}

func validateDeviationRequest(req *model.DeviationRequest, maxLen int) error {
	if req.Polyline == "" {
		return fmt.Errorf("polyline is required")
	}
	if maxLen > 0 && len(req.Polyline) > maxLen {
		return fmt.Errorf("polyline exceeds %d bytes", maxLen)
	}
	if err := validatePoint("current", req.Current); err != nil {
		return err
	}
	for i, f := range req.History {
		if err := validatePoint(fmt.Sprintf("history[%d]", i), f.Point()); err != nil {
			return err
		}
		if f.At.IsZero() {
			return fmt.Errorf("history[%d].at is required", i)
		}
	}
	for i, f := range req.Schedule {
		if err := validatePoint(fmt.Sprintf("schedule[%d]", i), f.Point()); err != nil {
			return err
		}
	}
	if len(req.Schedule) > 0 && req.ScheduledStart == nil {
		return fmt.Errorf("scheduledStart is required with schedule")
	}
	return nil
}
