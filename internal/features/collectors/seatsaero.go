package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/common"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/deals"
)

// DefaultSeatsAeroBaseURL is the partner API root.
const DefaultSeatsAeroBaseURL = "https://seats.aero/partnerapi"

var seatsCabinCodes = map[deals.Cabin]string{
	deals.CabinEconomy:        "Y",
	deals.CabinPremiumEconomy: "W",
	deals.CabinBusiness:       "J",
	deals.CabinFirst:          "F",
}

var seatsCabinParams = map[deals.Cabin]string{
	deals.CabinEconomy:        "economy",
	deals.CabinPremiumEconomy: "premium",
	deals.CabinBusiness:       "business",
	deals.CabinFirst:          "first",
}

// SeatsAeroSourceNames names the mileage programs seats.aero reports.
var SeatsAeroSourceNames = map[string]string{
	"united":              "United MileagePlus",
	"american":            "American AAdvantage",
	"delta":               "Delta SkyMiles",
	"aeroplan":            "Air Canada Aeroplan",
	"alaska":              "Alaska Mileage Plan",
	"virgin-atlantic":     "Virgin Atlantic Flying Club",
	"flying-blue":         "Air France/KLM Flying Blue",
	"lifemiles":           "Avianca LifeMiles",
	"velocity":            "Velocity Frequent Flyer",
	"smiles":              "GOL Smiles",
	"aeromexico":          "Aeromexico Club Premier",
	"emirates":            "Emirates Skywards",
	"etihad":              "Etihad Guest",
	"qantas":              "Qantas Frequent Flyer",
	"asiamiles":           "Cathay Pacific Asia Miles",
	"connecting-partners": "Connecting Partners",
}

// seats.aero source names that differ from our program codes.
var seatsSourceToProgram = map[string]string{
	"american":        "aa",
	"virgin-atlantic": "virgin_atlantic",
	"flying-blue":     "flying_blue",
	"lifemiles":       "avianca",
	"asiamiles":       "cathay",
}

func programFromSource(source string) string {
	if code, ok := seatsSourceToProgram[source]; ok {
		return code
	}
	return strings.ReplaceAll(source, "-", "_")
}

func sourceFromProgram(code string) string {
	for src, c := range seatsSourceToProgram {
		if c == code {
			return src
		}
	}
	return strings.ReplaceAll(code, "_", "-")
}

type SeatsAeroConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries uint64
}

// SeatsAeroCollector searches the seats.aero cached availability API.
type SeatsAeroCollector struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
	now        func() time.Time
}

func NewSeatsAeroCollector(cfg SeatsAeroConfig) *SeatsAeroCollector {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultSeatsAeroBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	return &SeatsAeroCollector{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		client:     client,
		maxRetries: retries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:        time.Now,
	}
}

func (s *SeatsAeroCollector) Code() string { return "seats_aero" }

// SearchAwards queries one cabin over [Date, DateEnd]. Rate limiting is
// retried with exponential backoff; a rejected key is not.
func (s *SeatsAeroCollector) SearchAwards(ctx context.Context, q Query) ([]*deals.Award, error) {
	if s.apiKey == "" {
		return nil, common.ErrMissingAPIKey
	}
	q = q.Normalize()

	params := url.Values{
		"origin_airport":      {q.Origin},
		"destination_airport": {q.Destination},
		"start_date":          {q.Date.Format(time.DateOnly)},
		"end_date":            {q.DateEnd.AddDate(0, 0, 1).Format(time.DateOnly)},
		"take":                {"100"},
	}
	if c, ok := seatsCabinParams[q.Cabin]; ok {
		params.Set("cabins", c)
	}
	if len(q.Programs) > 0 {
		sources := make([]string, len(q.Programs))
		for i, p := range q.Programs {
			sources[i] = sourceFromProgram(p)
		}
		params.Set("sources", strings.Join(sources, ","))
	}
	endpoint := s.baseURL + "/search?" + params.Encode()

	var body []byte
	op := func() error {
		b, err := s.fetch(ctx, endpoint)
		if err != nil {
			if errors.Is(err, common.ErrRateLimited) {
				log.WithField("collector", s.Code()).Debug("Rate limited, backing off")
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return s.parse(body, q.Cabin)
}

func (s *SeatsAeroCollector) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Partner-Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seats.aero request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("seats.aero read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, common.ErrRateLimited
	default:
		return nil, fmt.Errorf("seats.aero status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

type seatsResponse struct {
	Data []map[string]any `json:"data"`
}

func (s *SeatsAeroCollector) parse(body []byte, cabin deals.Cabin) ([]*deals.Award, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp seatsResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("seats.aero decode: %w", err)
	}

	code, ok := seatsCabinCodes[cabin]
	if !ok {
		code = "J"
	}

	awards := make([]*deals.Award, 0, len(resp.Data))
	for _, row := range resp.Data {
		if a := s.parseRow(row, cabin, code); a != nil {
			awards = append(awards, a)
		}
	}
	return awards, nil
}

// parseRow returns nil for rows without availability or price in the cabin.
func (s *SeatsAeroCollector) parseRow(row map[string]any, cabin deals.Cabin, code string) *deals.Award {
	if !boolField(row, code+"Available") {
		return nil
	}
	miles := intField(row, code+"MileageCost")
	if miles <= 0 {
		return nil
	}

	route, _ := row["Route"].(map[string]any)
	origin := stringField(route, "OriginAirport")
	if origin == "" {
		origin = "???"
	}
	destination := stringField(route, "DestinationAirport")
	if destination == "" {
		destination = "???"
	}
	source := stringField(row, "Source")
	if source == "" {
		source = stringField(route, "Source")
	}
	if source == "" {
		source = "unknown"
	}

	seats := int(intField(row, code+"RemainingSeats"))
	if seats <= 0 {
		seats = 1
	}

	airlines := stringField(row, code+"Airlines")
	airline := "??"
	if airlines != "" {
		airline = strings.TrimSpace(strings.Split(airlines, ",")[0])
	}

	stops := 1
	if boolField(row, code+"Direct") {
		stops = 0
	}

	departure, err := time.Parse(time.DateOnly, stringField(row, "Date"))
	if err != nil {
		departure = s.now()
	}

	name, ok := SeatsAeroSourceNames[source]
	if !ok {
		name = source
	}

	a, err := deals.NewAward(deals.AwardParams{
		Flight: deals.Flight{
			FlightNo:    airline + "*",
			AirlineCode: airline,
			AirlineName: airlines,
			Origin:      origin,
			Destination: destination,
			Departure:   departure,
			Arrival:     departure.Add(12 * time.Hour),
			Stops:       stops,
		},
		Program:        programFromSource(source),
		ProgramName:    name,
		Miles:          miles,
		Cabin:          cabin,
		IsSaver:        true,
		SeatsAvailable: seats,
		Source:         "seats.aero",
		ScrapedAt:      s.now(),
	})
	if err != nil {
		return nil
	}
	return a
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// intField accepts numbers and strings like "85,000".
func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return n
	case string:
		n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}
