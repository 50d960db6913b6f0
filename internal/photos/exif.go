package photos

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DateFromExif extracts a YYYY-MM-DD date from the stored EXIF JSON.
// EXIF datetimes look like "2018:03:18 14:02:11"; both ":" and "-" separated
// date parts are accepted. Empty string when there is nothing usable.
func DateFromExif(exifJSON string) string {
	data := decodeExif(exifJSON)
	if data == nil {
		return ""
	}
	dtv, _ := data["datetime"].(string)
	fields := strings.Fields(dtv)
	if len(fields) == 0 {
		return ""
	}
	datePart := fields[0]
	parts := strings.Split(strings.ReplaceAll(datePart, ":", "-"), "-")
	if len(parts) < 3 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", parts[0], parts[1], parts[2])
}

// SummarizeExif renders a one-line human summary of the EXIF JSON for the
// review listing.
func SummarizeExif(exifJSON string) string {
	data := decodeExif(exifJSON)
	if data == nil {
		return ""
	}

	var parts []string
	if dtv, _ := data["datetime"].(string); dtv != "" {
		parts = append(parts, "time: "+dtv)
	}
	make_, _ := data["make"].(string)
	model, _ := data["model"].(string)
	if cam := strings.TrimSpace(strings.TrimSpace(make_) + " " + strings.TrimSpace(model)); cam != "" {
		parts = append(parts, "camera: "+cam)
	}

	var exposure []string
	if v := stringify(data["iso"]); v != "" {
		exposure = append(exposure, "ISO "+v)
	}
	if v := stringify(data["exposure_time"]); v != "" {
		exposure = append(exposure, "shutter "+v)
	}
	if v := stringify(data["f_number"]); v != "" {
		exposure = append(exposure, "aperture "+v)
	}
	if v := stringify(data["focal_length"]); v != "" {
		exposure = append(exposure, "focal "+v)
	}
	if len(exposure) > 0 {
		parts = append(parts, strings.Join(exposure, " / "))
	}

	lat, latOK := toFloat(data["gps_lat"])
	lon, lonOK := toFloat(data["gps_lon"])
	if latOK && lonOK {
		parts = append(parts, fmt.Sprintf("GPS: %.5f, %.5f", lat, lon))
	}

	return strings.Join(parts, "; ")
}

func decodeExif(exifJSON string) map[string]any {
	if exifJSON == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(exifJSON), &data); err != nil {
		return nil
	}
	return data
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(x), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
