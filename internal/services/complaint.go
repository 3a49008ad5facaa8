package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/civitrack/apiserver/internal/events"
	"github.com/civitrack/apiserver/internal/storage"
	"github.com/civitrack/apiserver/internal/store"
	"github.com/civitrack/apiserver/types"
)

// Sentinel errors for lifecycle authorization and validation.
var (
	// ErrForbidden is returned when the caller's role or ownership does
	// not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOfficer is returned when an assignment targets a user
	// that does not exist or does not hold the officer role.
	ErrInvalidOfficer = errors.New("invalid officer")
)

const seedComment = "Complaint Submitted"

// ComplaintRepository defines persistence operations for complaints.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint types.Complaint) (types.Complaint, error)
	Get(ctx context.Context, id int) (types.Complaint, error)
	List(ctx context.Context, filter store.ComplaintFilter) ([]types.Complaint, error)
	AppendUpdate(ctx context.Context, id int, update types.Update) error
	Assign(ctx context.Context, id, officerID int, update types.Update) error
}

// Attachment is an uploaded file accompanying a new complaint.
type Attachment struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
}

// LodgeInput carries the caller-supplied fields for a new complaint.
type LodgeInput struct {
	Title        string
	Description  string
	DepartmentID int
	Category     string
	Priority     types.Priority
	Attachment   *Attachment
}

// ListFilter carries the explicit equality filters for complaint
// listings. The viewer-derived restriction is composed on top of it.
type ListFilter struct {
	Status       types.Status
	DepartmentID int
}

// ComplaintService is the complaint lifecycle engine: it owns the
// append-only update history, the status bookkeeping, and the
// role/ownership rules for reading and transitioning complaints.
type ComplaintService struct {
	repo        ComplaintRepository
	users       UserRepository
	attachments *storage.AttachmentStore
	publisher   *events.Publisher
}

func NewComplaintService(
	repo ComplaintRepository,
	users UserRepository,
	attachments *storage.AttachmentStore,
	publisher *events.Publisher,
) *ComplaintService {
	return &ComplaintService{
		repo:        repo,
		users:       users,
		attachments: attachments,
		publisher:   publisher,
	}
}

// Lodge creates a complaint in Submitted status with its seed update.
// The attachment, if any, is stored before the record is written; a
// crash in between leaves an orphaned object, which is acceptable.
func (s *ComplaintService) Lodge(ctx context.Context, userID int, input LodgeInput) (types.Complaint, error) {
	priority := input.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}

	var attachmentKey string
	if input.Attachment != nil {
		if s.attachments == nil {
			return types.Complaint{}, errors.New("attachment storage is not configured")
		}
		attachmentKey = storage.NewKey(input.Attachment.Filename)
		err := s.attachments.Put(
			ctx,
			attachmentKey,
			input.Attachment.Reader,
			input.Attachment.Size,
			input.Attachment.ContentType,
		)
		if err != nil {
			return types.Complaint{}, fmt.Errorf("store attachment: %w", err)
		}
	}

	now := time.Now()
	complaint := types.Complaint{
		UserID:        userID,
		DepartmentID:  input.DepartmentID,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Priority:      priority,
		Status:        types.StatusSubmitted,
		AttachmentKey: attachmentKey,
		Updates: []types.Update{{
			UpdatedBy: userID,
			Comment:   seedComment,
			Status:    types.StatusSubmitted,
			Timestamp: now,
		}},
	}

	created, err := s.repo.Create(ctx, complaint)
	if err != nil {
		return types.Complaint{}, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypeLodged,
		ComplaintID: created.ID,
		Status:      created.Status,
		ActorID:     userID,
	})
	return created, nil
}

// ListMine returns the viewer's own complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, userID int) ([]types.Complaint, error) {
	return s.repo.List(ctx, store.ComplaintFilter{OwnerID: userID})
}

// ListForRole returns complaints visible to the viewer, newest first.
// The viewer-derived restriction is applied before the explicit filters:
// officers see only complaints assigned to them, plain users only their
// own, admins everything.
func (s *ComplaintService) ListForRole(ctx context.Context, viewer types.User, filter ListFilter) ([]types.Complaint, error) {
	composed := store.ComplaintFilter{
		Status:       filter.Status,
		DepartmentID: filter.DepartmentID,
	}
	switch viewer.Role {
	case types.RoleOfficer:
		composed.AssignedTo = viewer.ID
	case types.RoleUser:
		composed.OwnerID = viewer.ID
	}
	return s.repo.List(ctx, composed)
}

// Get returns one complaint with all references resolved, including the
// author of every history entry. A plain user may only fetch their own
// complaint; officers and admins may fetch any.
func (s *ComplaintService) Get(ctx context.Context, viewer types.User, id int) (types.Complaint, error) {
	complaint, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Complaint{}, err
	}

	if viewer.Role == types.RoleUser && complaint.UserID != viewer.ID {
		return types.Complaint{}, ErrForbidden
	}

	if err := s.resolveAuthors(ctx, &complaint); err != nil {
		return types.Complaint{}, err
	}
	return complaint, nil
}

// Assign sets the handling officer on a complaint, forces its status to
// InProgress, and records the assignment in the history. The target must
// exist and hold the officer role; otherwise nothing is mutated.
func (s *ComplaintService) Assign(ctx context.Context, adminID, complaintID, officerID int) error {
	officer, err := s.users.GetByID(ctx, officerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOfficer
		}
		return err
	}
	if officer.Role != types.RoleOfficer {
		return ErrInvalidOfficer
	}

	update := types.Update{
		UpdatedBy: adminID,
		Comment:   fmt.Sprintf("Assigned to officer %s", officer.Name),
		Status:    types.StatusInProgress,
		Timestamp: time.Now(),
	}
	if err := s.repo.Assign(ctx, complaintID, officerID, update); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypeAssigned,
		ComplaintID: complaintID,
		Status:      types.StatusInProgress,
		ActorID:     adminID,
	})
	return nil
}

// RecordUpdate appends a history entry and moves the complaint's status
// to match it. Transitions are not ordered: any supported status may be
// written; unsupported values are rejected by the store.
func (s *ComplaintService) RecordUpdate(ctx context.Context, author types.User, complaintID int, status types.Status, comment string) (types.Complaint, error) {
	update := types.Update{
		UpdatedBy: author.ID,
		Comment:   comment,
		Status:    status,
		Timestamp: time.Now(),
	}
	if err := s.repo.AppendUpdate(ctx, complaintID, update); err != nil {
		return types.Complaint{}, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypeUpdated,
		ComplaintID: complaintID,
		Status:      status,
		ActorID:     author.ID,
	})
	return s.Get(ctx, author, complaintID)
}

func (s *ComplaintService) resolveAuthors(ctx context.Context, complaint *types.Complaint) error {
	seen := make(map[int]bool)
	var ids []int
	for _, update := range complaint.Updates {
		if !seen[update.UpdatedBy] {
			seen[update.UpdatedBy] = true
			ids = append(ids, update.UpdatedBy)
		}
	}

	refs, err := s.users.GetRefs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range complaint.Updates {
		if ref, ok := refs[complaint.Updates[i].UpdatedBy]; ok {
			ref.Email = ""
			complaint.Updates[i].Author = &ref
		}
	}
	return nil
}
