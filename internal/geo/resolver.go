package geo

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dpcfinder/dpc-enrich/internal/model"
	"github.com/dpcfinder/dpc-enrich/pkg/geocode"
)

// Geocoder is the narrow slice of the geocoding client the resolver needs.
type Geocoder interface {
	Geocode(ctx context.Context, oneLine string) (*geocode.Result, error)
	GeocodeCityState(ctx context.Context, city, state string) (*geocode.Result, error)
	GeocodeZip(ctx context.Context, zip string) (*geocode.Result, error)
}

// LocationData is the resolver output. City/State/ZipCode are set together
// or left empty together; coordinates may be present independently (a ZIP
// centroid yields a point without a street-level location).
type LocationData struct {
	Address   string
	City      string
	State     string
	ZipCode   string
	Latitude  *float64
	Longitude *float64
	Source    string // "structured", "city_state_zip", "geocode", "place", "zip_centroid"
}

// Input is everything the resolver may draw on for one provider.
type Input struct {
	Text            string // raw page/address text to scan
	Address         string // best-known street address, if any
	City            string // hints; sentinels treated as unknown
	State           string
	Zip             string
	ProviderName    string // for the name-like-city false-positive filter
	NeedCoordinates bool   // also geocode when a text strategy succeeds
}

const streetTypes = `St|Street|Ave|Avenue|Blvd|Boulevard|Dr|Drive|Rd|Road|Ln|Lane|Way|Pkwy|Parkway|Ct|Court|Pl|Place|Cir|Circle|Hwy|Highway|Ste|Suite|Trl|Trail`

var (
	// "123 Main St, Springfield, IL 62704"; a street-type token is required.
	structuredPattern = regexp.MustCompile(`(?i)(\d+\s[^,\n]{0,40}?\b(?:` + streetTypes + `)\b\.?[^,\n]{0,30}?),\s*([A-Za-z][A-Za-z .'\-]{1,39}?),?\s+([A-Za-z]{2})\.?,?\s+(\d{5})(?:-\d{4})?\b`)

	// Bare "Springfield, IL 62704".
	cityStateZipPattern = regexp.MustCompile(`\b([A-Za-z][A-Za-z .'\-]{2,39}?),\s*([A-Z]{2})\.?\s+(\d{5})(?:-\d{4})?\b`)
)

// minBareCityLen suppresses short false matches in the bare pattern.
const minBareCityLen = 4

// Resolver runs the ordered location strategy chain.
type Resolver struct {
	gc Geocoder
}

// NewResolver creates a resolver. A nil geocoder disables the geocoding
// strategies; the text strategies still run.
func NewResolver(gc Geocoder) *Resolver {
	return &Resolver{gc: gc}
}

// Resolve runs the strategy chain and returns the first acceptable
// location, or nil when every strategy fails. Geocoder transport errors
// fail only their own strategy; the chain continues.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*LocationData, error) {
	text := in.Address
	if in.Text != "" {
		text = text + "\n" + in.Text
	}

	// 1. Structured address block.
	if loc := r.matchStructured(text, in.ProviderName); loc != nil {
		if in.NeedCoordinates {
			r.attachCoordinates(ctx, loc)
		}
		return loc, nil
	}

	// 2. Bare "City, ST ZIP".
	if loc := r.matchCityStateZip(text, in.ProviderName); loc != nil {
		if in.NeedCoordinates {
			r.attachCoordinates(ctx, loc)
		}
		return loc, nil
	}

	if r.gc == nil {
		return nil, nil
	}

	// 3. Forward geocode on the fullest available address string.
	if loc := r.forwardGeocode(ctx, in); loc != nil {
		return loc, nil
	}

	// 4. City/state-only geocode.
	if loc := r.placeGeocode(ctx, in); loc != nil {
		return loc, nil
	}

	// 5. ZIP centroid, coarse last resort.
	if loc := r.zipCentroid(ctx, in); loc != nil {
		return loc, nil
	}

	return nil, nil
}

// ValidateCityStateZip applies the sanity filters shared by all strategies:
// real state code, non-name-like city, and the Maryland ZIP-prefix guard.
func ValidateCityStateZip(city, state, zip, providerName string) bool {
	state = strings.ToUpper(state)
	if !ValidState(state) {
		return false
	}
	if looksLikePersonName(city, providerName) {
		return false
	}
	// "MD" is also a physician credential; require a Maryland ZIP to agree.
	if state == "MD" && !validMDZip(zip) {
		return false
	}
	return true
}

func (r *Resolver) matchStructured(text, providerName string) *LocationData {
	for _, m := range structuredPattern.FindAllStringSubmatch(text, 5) {
		address := strings.TrimSpace(m[1])
		city := strings.TrimSpace(m[2])
		state := strings.ToUpper(m[3])
		zip := m[4]
		if !ValidateCityStateZip(city, state, zip, providerName) {
			continue
		}
		return &LocationData{
			Address: address,
			City:    city,
			State:   state,
			ZipCode: zip,
			Source:  "structured",
		}
	}
	return nil
}

func (r *Resolver) matchCityStateZip(text, providerName string) *LocationData {
	for _, m := range cityStateZipPattern.FindAllStringSubmatch(text, 5) {
		city := strings.TrimSpace(m[1])
		state := m[2]
		zip := m[3]
		if len(city) < minBareCityLen {
			continue
		}
		if !ValidateCityStateZip(city, state, zip, providerName) {
			continue
		}
		return &LocationData{
			City:    city,
			State:   state,
			ZipCode: zip,
			Source:  "city_state_zip",
		}
	}
	return nil
}

// attachCoordinates geocodes an already-parsed location for its point,
// keeping the parsed city/state/zip authoritative over the geocoder echo.
func (r *Resolver) attachCoordinates(ctx context.Context, loc *LocationData) {
	if r.gc == nil {
		return
	}
	oneLine := loc.City + ", " + loc.State + " " + loc.ZipCode
	if loc.Address != "" {
		oneLine = loc.Address + ", " + oneLine
	}
	res, err := r.gc.Geocode(ctx, oneLine)
	if err != nil {
		zap.L().Debug("geo: coordinate attach failed", zap.String("address", oneLine), zap.Error(err))
		return
	}
	if !res.Matched {
		if res, err = r.gc.GeocodeZip(ctx, loc.ZipCode); err != nil || !res.Matched {
			return
		}
	}
	lat, lng := res.Latitude, res.Longitude
	loc.Latitude = &lat
	loc.Longitude = &lng
}

func (r *Resolver) forwardGeocode(ctx context.Context, in Input) *LocationData {
	oneLine := fullestAddress(in)
	if oneLine == "" {
		return nil
	}
	res, err := r.gc.Geocode(ctx, oneLine)
	if err != nil {
		zap.L().Debug("geo: forward geocode failed", zap.String("address", oneLine), zap.Error(err))
		return nil
	}
	if !res.Matched {
		return nil
	}

	city, state, zip := res.City, res.State, res.Zip
	if city == "" {
		city, state, zip = knownHint(in.City), strings.ToUpper(in.State), in.Zip
	}
	if city == "" || !ValidateCityStateZip(city, state, zip, in.ProviderName) {
		// Keep the point, drop the questionable place name.
		city, state, zip = "", "", ""
	}

	lat, lng := res.Latitude, res.Longitude
	return &LocationData{
		Address:   in.Address,
		City:      city,
		State:     state,
		ZipCode:   zip,
		Latitude:  &lat,
		Longitude: &lng,
		Source:    "geocode",
	}
}

func (r *Resolver) placeGeocode(ctx context.Context, in Input) *LocationData {
	city := knownHint(in.City)
	state := strings.ToUpper(strings.TrimSpace(in.State))
	if city == "" || !ValidState(state) || state == model.StateUnknown {
		return nil
	}
	if looksLikePersonName(city, in.ProviderName) {
		return nil
	}
	res, err := r.gc.GeocodeCityState(ctx, city, state)
	if err != nil {
		zap.L().Debug("geo: place geocode failed", zap.String("city", city), zap.Error(err))
		return nil
	}
	if !res.Matched {
		return nil
	}
	lat, lng := res.Latitude, res.Longitude
	loc := &LocationData{
		City:      city,
		State:     state,
		Latitude:  &lat,
		Longitude: &lng,
		Source:    "place",
	}
	if zip := knownZip(in.Zip); zip != "" {
		loc.ZipCode = zip
	} else {
		// No ZIP known; the triple stays incomplete and the caller's
		// store gate keeps the sentinel triple intact.
		loc.City, loc.State = "", ""
	}
	return loc
}

func (r *Resolver) zipCentroid(ctx context.Context, in Input) *LocationData {
	zip := knownZip(in.Zip)
	if zip == "" {
		return nil
	}
	res, err := r.gc.GeocodeZip(ctx, zip)
	if err != nil {
		zap.L().Debug("geo: zip centroid failed", zap.String("zip", zip), zap.Error(err))
		return nil
	}
	if !res.Matched {
		return nil
	}
	lat, lng := res.Latitude, res.Longitude
	return &LocationData{
		ZipCode:   zip,
		Latitude:  &lat,
		Longitude: &lng,
		Source:    "zip_centroid",
	}
}

// fullestAddress builds the longest address string available from hints.
func fullestAddress(in Input) string {
	var parts []string
	if a := strings.TrimSpace(in.Address); a != "" {
		parts = append(parts, a)
	}
	if c := knownHint(in.City); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(in.State); s != "" && s != model.StateUnknown {
		parts = append(parts, s)
	}
	if z := knownZip(in.Zip); z != "" {
		parts = append(parts, z)
	}
	return strings.Join(parts, ", ")
}

func knownHint(city string) string {
	city = strings.TrimSpace(city)
	if city == "" || strings.EqualFold(city, model.CityUnknown) {
		return ""
	}
	return city
}

func knownZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) != 5 || zip == model.ZipUnknown {
		return ""
	}
	return zip
}
