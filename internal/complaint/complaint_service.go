// Package complaint provides the core logic for handling complaints: intake,
// updates, classification and the dashboard summary.
package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/analytics"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("complaint not found")
	ErrValidation = errors.New("invalid complaint")
)

// ValidationError lists what is wrong with a submitted payload.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// invalidPayload turns a decode failure into a client-safe ValidationError.
// The decoder's own message names Go types, so it only goes to the log.
func (s *Service) invalidPayload(ctx context.Context, err error) *ValidationError {
	s.Log.WarnContext(ctx, "complaint payload rejected", slog.String("error", err.Error()))

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.LastIndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		return &ValidationError{Reason: fmt.Sprintf("field %s has the wrong type", field)}
	}
	return &ValidationError{Reason: "invalid complaint payload"}
}

// Publisher receives an event after every successful write.
type Publisher interface {
	Publish(ctx context.Context, ev models.ComplaintEvent) error
}

// Notifier is told about newly created complaints.
type Notifier interface {
	NotifyCreated(ctx context.Context, c models.Complaint) error
}

// Cache holds the serialized dashboard summary.
type Cache interface {
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, data []byte) error
	Invalidate(ctx context.Context) error
}

// Service handles the business logic for complaints.
// Events, Notifier and Cache are optional.
type Service struct {
	Storage    storage.Storage
	Classifier analysis.Classifier
	Events     Publisher
	Notifier   Notifier
	Cache      Cache
	Log        *slog.Logger

	Now   func() time.Time
	NewID func() string

	// mu serializes load-modify-save cycles.
	mu sync.Mutex
}

// NewService creates a new complaint service.
func NewService(s storage.Storage, c analysis.Classifier, logger *slog.Logger) *Service {
	return &Service{
		Storage:    s,
		Classifier: c,
		Log:        logger,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// List returns every complaint in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	return s.Storage.LoadAll(ctx)
}

// Get returns the complaint with the given id.
func (s *Service) Get(ctx context.Context, id string) (models.Complaint, error) {
	list, err := s.Storage.LoadAll(ctx)
	if err != nil {
		return models.Complaint{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.Complaint{}, ErrNotFound
	}
	return list[i], nil
}

// Create stores a new complaint built from the caller's fields.
// The id is always generated; status is always pending; createdAt is now.
func (s *Service) Create(ctx context.Context, fields map[string]json.RawMessage) (models.Complaint, error) {
	c, err := models.Merge(models.Complaint{}, fields)
	if err != nil {
		return models.Complaint{}, s.invalidPayload(ctx, err)
	}

	var missing []string
	for name, v := range map[string]string{"title": c.Title, "description": c.Description, "contactInfo": c.ContactInfo} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return models.Complaint{}, &ValidationError{Fields: missing}
	}

	now := models.FormatTime(s.Now())
	c.ID = s.NewID()
	c.CreatedAt = now
	c.UpdatedAt = ""
	if c.Timestamp == "" {
		c.Timestamp = now
	}
	c.Status = models.StatusPending
	c.AIAnalyzed = false
	if c.Priority == "" {
		c.Priority = config.DefaultPriority
	}
	if c.UserType == "" {
		c.UserType = config.DefaultUserType
	}
	if c.Domain == "" {
		c.Domain = config.DefaultDomain
	}

	s.mu.Lock()
	list, err := s.Storage.LoadAll(ctx)
	if err == nil {
		err = s.Storage.SaveAll(ctx, append(list, c))
	}
	s.mu.Unlock()
	if err != nil {
		return models.Complaint{}, err
	}

	s.Log.InfoContext(ctx, "complaint created", slog.String("id", c.ID), slog.String("priority", c.Priority))
	s.afterWrite(ctx, models.EventCreated, c.ID, &c)
	s.notify(ctx, c)
	return c, nil
}

// Update merges patch into the complaint's top-level fields. Nested values are
// replaced, not merged. id and createdAt cannot be changed.
func (s *Service) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (models.Complaint, error) {
	s.mu.Lock()
	updated, err := s.update(ctx, id, patch)
	s.mu.Unlock()
	if err != nil {
		return models.Complaint{}, err
	}

	s.Log.InfoContext(ctx, "complaint updated", slog.String("id", id), slog.Int("fields", len(patch)))
	s.afterWrite(ctx, models.EventUpdated, id, &updated)
	return updated, nil
}

func (s *Service) update(ctx context.Context, id string, patch map[string]json.RawMessage) (models.Complaint, error) {
	list, err := s.Storage.LoadAll(ctx)
	if err != nil {
		return models.Complaint{}, err
	}
	i := indexOf(list, id)
	if i < 0 {
		return models.Complaint{}, ErrNotFound
	}

	merged, err := models.Merge(list[i], patch)
	if err != nil {
		return models.Complaint{}, s.invalidPayload(ctx, err)
	}
	merged.ID = list[i].ID
	merged.CreatedAt = list[i].CreatedAt
	merged.UpdatedAt = models.FormatTime(s.Now())

	list[i] = merged
	if err := s.Storage.SaveAll(ctx, list); err != nil {
		return models.Complaint{}, err
	}
	return merged, nil
}

// Delete removes the complaint with the given id. The order of the rest is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.delete(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.Log.InfoContext(ctx, "complaint deleted", slog.String("id", id))
	s.afterWrite(ctx, models.EventDeleted, id, nil)
	return nil
}

func (s *Service) delete(ctx context.Context, id string) error {
	list, err := s.Storage.LoadAll(ctx)
	if err != nil {
		return err
	}
	i := indexOf(list, id)
	if i < 0 {
		return ErrNotFound
	}
	return s.Storage.SaveAll(ctx, slices.Delete(list, i, i+1))
}

// Classify runs the classifier over text without touching the store.
func (s *Service) Classify(ctx context.Context, text string) (analysis.Classification, error) {
	if strings.TrimSpace(text) == "" {
		return analysis.Classification{}, analysis.ErrEmptyText
	}
	return s.Classifier.Classify(ctx, text)
}

// Analyze classifies the complaint's description and stores the result on it.
func (s *Service) Analyze(ctx context.Context, id string) (models.Complaint, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return models.Complaint{}, err
	}

	text := c.Description
	if strings.TrimSpace(text) == "" {
		text = c.Title
	}
	result, err := s.Classifier.Classify(ctx, text)
	if err != nil {
		return models.Complaint{}, err
	}

	patch, err := classificationPatch(result)
	if err != nil {
		return models.Complaint{}, err
	}
	return s.Update(ctx, id, patch)
}

func classificationPatch(r analysis.Classification) (map[string]json.RawMessage, error) {
	values := map[string]any{
		"aiAnalyzed":   true,
		"aiConfidence": r.Confidence,
	}
	for k, v := range map[string]string{
		"category":   r.Category,
		"priority":   r.Priority,
		"type":       r.Type,
		"department": r.Department,
	} {
		if v != "" {
			values[k] = v
		}
	}

	patch := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		patch[k] = raw
	}
	return patch, nil
}

// Summary returns the dashboard statistics, served from the cache when possible.
func (s *Service) Summary(ctx context.Context) (analytics.Summary, error) {
	if s.Cache != nil {
		data, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Log.WarnContext(ctx, "summary cache read failed", slog.String("error", err.Error()))
		}
		var cached analytics.Summary
		if ok && json.Unmarshal(data, &cached) == nil {
			return cached, nil
		}
	}

	// Held until the cache is filled so a write cannot invalidate in between
	// and leave a summary of the old list behind.
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.Storage.LoadAll(ctx)
	if err != nil {
		return analytics.Summary{}, err
	}
	summary := analytics.Summarize(list)

	if s.Cache != nil {
		data, err := json.Marshal(summary)
		if err == nil {
			err = s.Cache.Set(ctx, data)
		}
		if err != nil {
			s.Log.WarnContext(ctx, "summary cache write failed", slog.String("error", err.Error()))
		}
	}
	return summary, nil
}

// Groups counts complaints per value of field.
func (s *Service) Groups(ctx context.Context, field string) ([]analytics.GroupCount, error) {
	list, err := s.Storage.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.GroupBy(list, field), nil
}

// afterWrite drops the cached summary and publishes ev. Failures are logged;
// the write itself has already succeeded.
func (s *Service) afterWrite(ctx context.Context, typ, id string, c *models.Complaint) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Log.WarnContext(ctx, "summary cache invalidate failed", slog.String("error", err.Error()))
		}
	}
	if s.Events != nil {
		ev := models.ComplaintEvent{Type: typ, ComplaintID: id, Complaint: c, At: s.Now().UTC()}
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Log.WarnContext(ctx, "event publish failed", slog.String("type", typ), slog.String("error", err.Error()))
		}
	}
}

// notify runs the notifier in the background so a slow chat API never delays the response.
func (s *Service) notify(ctx context.Context, c models.Complaint) {
	if s.Notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.Notifier.NotifyCreated(ctx, c); err != nil {
			s.Log.WarnContext(ctx, "notification failed", slog.String("id", c.ID), slog.String("error", err.Error()))
		}
	}()
}

func indexOf(list []models.Complaint, id string) int {
	return slices.IndexFunc(list, func(c models.Complaint) bool { return c.ID == id })
}
