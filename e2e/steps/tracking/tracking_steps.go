package tracking

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
	"github.com/goccy/go-json"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any, headers map[string]string) error
	PUT(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	POSTMultipart(path string, fields map[string]string, fileField, fileName string, file []byte, headers map[string]string) error
	GETAbsolute(url string) error
	GetLastResponseBody() []byte
	GetTokenFor(name string) string
	GetUserIDFor(name string) string
	GetRecordID() string
	SetRecordID(recordID string)
}

// photoBytes is a tiny payload with bytes that would break any text re-encoding.
var photoBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

// RegisterSteps registers tracking record steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &trackingSteps{tc: tc}

	ctx.Step(`^"([^"]*)" creates a record for phone "([^"]*)" with description "([^"]*)" at "([^"]*)"$`, steps.createRecord)
	ctx.Step(`^"([^"]*)" creates a record for phone "([^"]*)" with a photo$`, steps.createRecordWithPhoto)
	ctx.Step(`^"([^"]*)" lists their records$`, steps.listRecords)
	ctx.Step(`^"([^"]*)" searches for phone "([^"]*)"$`, steps.search)
	ctx.Step(`^"([^"]*)" sets the status of the saved record to "([^"]*)"$`, steps.updateStatus)
	ctx.Step(`^I save the record id$`, steps.saveRecordID)
	ctx.Step(`^the record list should contain exactly the saved record$`, steps.listContainsExactlySaved)
	ctx.Step(`^the record list should be empty$`, steps.listIsEmpty)
	ctx.Step(`^the record list should include records owned by "([^"]*)"$`, steps.listIncludesOwner)
	ctx.Step(`^the record should be owned by "([^"]*)"$`, steps.recordOwnedBy)
	ctx.Step(`^fetching the photo url returns the uploaded bytes$`, steps.photoRoundTrip)
}

type trackingSteps struct {
	tc TestContext
}

type recordView struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	Status   string  `json:"status"`
	PhotoURL *string `json:"photo_url"`
}

func (s *trackingSteps) auth(name string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.tc.GetTokenFor(name)}
}

func (s *trackingSteps) createRecord(_ context.Context, user, phone, description, location string) error {
	return s.tc.POSTMultipart("/tracking/create", map[string]string{
		"phone_number": phone,
		"description":  description,
		"location":     location,
	}, "", "", nil, s.auth(user))
}

func (s *trackingSteps) createRecordWithPhoto(_ context.Context, user, phone string) error {
	return s.tc.POSTMultipart("/tracking/create", map[string]string{"phone_number": phone},
		"photo", "evidence.jpg", photoBytes, s.auth(user))
}

func (s *trackingSteps) listRecords(_ context.Context, user string) error {
	return s.tc.GET("/tracking/records", s.auth(user))
}

func (s *trackingSteps) search(_ context.Context, user, phone string) error {
	return s.tc.GET("/tracking/search/"+url.PathEscape(phone), s.auth(user))
}

func (s *trackingSteps) updateStatus(_ context.Context, user, status string) error {
	return s.tc.PUT("/tracking/update/"+s.tc.GetRecordID(), map[string]string{"status": status}, s.auth(user))
}

func (s *trackingSteps) single() (*recordView, error) {
	var env struct {
		Data recordView `json:"data"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &env); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return &env.Data, nil
}

func (s *trackingSteps) list() ([]recordView, error) {
	var env struct {
		Data []recordView `json:"data"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &env); err != nil {
		return nil, fmt.Errorf("failed to parse record list: %w", err)
	}
	return env.Data, nil
}

func (s *trackingSteps) saveRecordID(context.Context) error {
	rec, err := s.single()
	if err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("response has no record id")
	}
	s.tc.SetRecordID(rec.ID)
	return nil
}

func (s *trackingSteps) listContainsExactlySaved(context.Context) error {
	records, err := s.list()
	if err != nil {
		return err
	}
	if len(records) != 1 || records[0].ID != s.tc.GetRecordID() {
		return fmt.Errorf("expected exactly record %s, got %+v", s.tc.GetRecordID(), records)
	}
	return nil
}

func (s *trackingSteps) listIsEmpty(context.Context) error {
	records, err := s.list()
	if err != nil {
		return err
	}
	if len(records) != 0 {
		return fmt.Errorf("expected no records, got %d", len(records))
	}
	return nil
}

func (s *trackingSteps) listIncludesOwner(_ context.Context, user string) error {
	records, err := s.list()
	if err != nil {
		return err
	}
	want := s.tc.GetUserIDFor(user)
	for _, r := range records {
		if r.UserID == want {
			return nil
		}
	}
	return fmt.Errorf("no record owned by %s (%s) in %+v", user, want, records)
}

func (s *trackingSteps) recordOwnedBy(_ context.Context, user string) error {
	rec, err := s.single()
	if err != nil {
		return err
	}
	if want := s.tc.GetUserIDFor(user); rec.UserID != want {
		return fmt.Errorf("expected owner %s, got %s", want, rec.UserID)
	}
	return nil
}

func (s *trackingSteps) photoRoundTrip(context.Context) error {
	rec, err := s.single()
	if err != nil {
		return err
	}
	if rec.PhotoURL == nil {
		return fmt.Errorf("record has no photo_url")
	}
	if err := s.tc.GETAbsolute(*rec.PhotoURL); err != nil {
		return err
	}
	if got := s.tc.GetLastResponseBody(); !bytes.Equal(got, photoBytes) {
		return fmt.Errorf("photo bytes differ: got %d bytes", len(got))
	}
	return nil
}
