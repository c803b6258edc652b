package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/taxonomy"
)

var onConflictDoNothing = clause.OnConflict{DoNothing: true}

func (s *Store) UpdateUser(ctx context.Context, id string, p UserPatch) (*models.User, error) {
	return s.Users.Update(ctx, id, func(u *models.User) error {
		if p.Role != nil && *p.Role != u.Role {
			return immutable("role")
		}
		set(&u.Status, p.Status)
		set(&u.FirstName, p.FirstName)
		set(&u.LastName, p.LastName)
		set(&u.Email, p.Email)
		set(&u.Phone, p.Phone)
		return nil
	})
}

// TouchLogin stamps the user's last login time.
func (s *Store) TouchLogin(ctx context.Context, id string) error {
	now := s.now()
	_, err := s.Users.Update(ctx, id, func(u *models.User) error {
		u.LastLoginAt = &now
		return nil
	})
	return err
}

func (s *Store) UpdateProperty(ctx context.Context, id string, p PropertyPatch) (*models.Property, error) {
	return s.Properties.Update(ctx, id, func(prop *models.Property) error {
		set(&prop.Name, p.Name)
		set(&prop.Address, p.Address)
		set(&prop.City, p.City)
		set(&prop.PropertyType, p.PropertyType)
		set(&prop.TotalUnits, p.TotalUnits)
		set(&prop.OccupiedUnits, p.OccupiedUnits)
		return nil
	})
}

func (s *Store) UpdateUnit(ctx context.Context, id string, p UnitPatch) (*models.Unit, error) {
	return s.Units.Update(ctx, id, func(u *models.Unit) error {
		set(&u.UnitNumber, p.UnitNumber)
		set(&u.Bedrooms, p.Bedrooms)
		set(&u.Bathrooms, p.Bathrooms)
		set(&u.Status, p.Status)
		set(&u.RentAmount, p.RentAmount)
		return nil
	})
}

// UpdateApplication applies p. A rejection must carry its admin notes in the
// same patch. Once an application is terminal only its admin notes may
// change. The landlord recommendation is set once, from pending.
func (s *Store) UpdateApplication(ctx context.Context, id string, p ApplicationPatch) (*models.Application, error) {
	return s.Applications.Update(ctx, id, func(a *models.Application) error {
		if p.Status != nil {
			if err := taxonomy.ValidateTransition(models.KindApplication, string(a.Status), string(*p.Status), deref(p.AdminNotes)); err != nil {
				return err
			}
		}
		if p.LandlordRecommendation != nil && *p.LandlordRecommendation != a.LandlordRecommendation {
			if !p.LandlordRecommendation.Valid() {
				return fmt.Errorf("%w: unknown landlord recommendation %q", models.ErrValidation, *p.LandlordRecommendation)
			}
			if a.LandlordRecommendation != models.RecommendationPending || *p.LandlordRecommendation == models.RecommendationPending {
				return immutable(fmt.Sprintf("landlord recommendation is already %s", a.LandlordRecommendation))
			}
		}
		if taxonomy.Terminal(models.KindApplication, string(a.Status)) && !p.onlyAdminNotes(a) {
			return immutable(fmt.Sprintf("application is %s, only admin notes may change", a.Status))
		}
		set(&a.Status, p.Status)
		set(&a.LandlordRecommendation, p.LandlordRecommendation)
		set(&a.LandlordNotes, p.LandlordNotes)
		set(&a.AdminNotes, p.AdminNotes)
		set(&a.EmploymentInfo, p.EmploymentInfo)
		set(&a.MonthlyIncome, p.MonthlyIncome)
		if p.MoveInDate != nil {
			a.MoveInDate = p.MoveInDate
		}
		return nil
	})
}

// UpdateLease applies p. Termination needs a reason in the same patch.
func (s *Store) UpdateLease(ctx context.Context, id string, p LeasePatch) (*models.Lease, error) {
	return s.Leases.Update(ctx, id, func(l *models.Lease) error {
		if p.Status != nil {
			if err := taxonomy.ValidateTransition(models.KindLease, string(l.Status), string(*p.Status), deref(p.TerminationReason)); err != nil {
				return err
			}
		}
		set(&l.Status, p.Status)
		set(&l.EndDate, p.EndDate)
		set(&l.RentAmount, p.RentAmount)
		set(&l.DepositAmount, p.DepositAmount)
		set(&l.PaymentFrequency, p.PaymentFrequency)
		set(&l.TerminationReason, p.TerminationReason)
		return nil
	})
}

// UpdatePayment applies p. Moving to paid stamps the paid date when the
// patch does not carry one.
func (s *Store) UpdatePayment(ctx context.Context, id string, p PaymentPatch) (*models.Payment, error) {
	return s.Payments.Update(ctx, id, func(pay *models.Payment) error {
		if p.Status != nil {
			if err := taxonomy.ValidateTransition(models.KindPayment, string(pay.Status), string(*p.Status), ""); err != nil {
				return err
			}
			if *p.Status == models.PaymentPaid && pay.Status != models.PaymentPaid && p.PaidDate == nil && pay.PaidDate == nil {
				now := s.now()
				pay.PaidDate = &now
			}
		}
		set(&pay.Status, p.Status)
		set(&pay.Method, p.Method)
		set(&pay.Reference, p.Reference)
		if p.LateFee != nil {
			pay.LateFee = p.LateFee
		}
		if p.PaidDate != nil {
			pay.PaidDate = p.PaidDate
		}
		return nil
	})
}

// UpdateMaintenance applies p. Completing or cancelling stamps ResolvedAt.
func (s *Store) UpdateMaintenance(ctx context.Context, id string, p MaintenancePatch) (*models.MaintenanceRequest, error) {
	return s.Maintenance.Update(ctx, id, func(m *models.MaintenanceRequest) error {
		if p.Status != nil {
			if err := taxonomy.ValidateTransition(models.KindMaintenance, string(m.Status), string(*p.Status), ""); err != nil {
				return err
			}
			if !p.Status.IsOpen() && m.Status.IsOpen() {
				now := s.now()
				m.ResolvedAt = &now
			}
		}
		if p.Priority != nil && !taxonomy.ValidPriority(*p.Priority) {
			return fmt.Errorf("%w: unknown priority %q", taxonomy.ErrUnknownStatus, *p.Priority)
		}
		set(&m.Status, p.Status)
		set(&m.Priority, p.Priority)
		set(&m.Title, p.Title)
		set(&m.Description, p.Description)
		set(&m.Category, p.Category)
		return nil
	})
}

// AddMaintenanceComment appends a comment to a request's thread.
func (s *Store) AddMaintenanceComment(ctx context.Context, requestID, authorID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is empty", models.ErrValidation)
	}
	if authorID == "" {
		return nil, fmt.Errorf("%w: comment requires an author", models.ErrValidation)
	}

	comment := models.Comment{
		RequestID: requestID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.MaintenanceRequest
		if err := forUpdate(tx).Select("id").First(&req, "id = ?", requestID).Error; err != nil {
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &comment, nil
}

// MarkMessageRead flips the read flag once. Marking a read message again
// returns it unchanged.
func (s *Store) MarkMessageRead(ctx context.Context, id string) (*models.Message, error) {
	return s.Messages.Update(ctx, id, func(m *models.Message) error {
		m.MarkRead(s.now())
		return nil
	})
}

// UpdateMessage applies p. The read flag only moves from unread to read.
func (s *Store) UpdateMessage(ctx context.Context, id string, p MessagePatch) (*models.Message, error) {
	return s.Messages.Update(ctx, id, func(m *models.Message) error {
		if p.Read != nil {
			if !*p.Read && m.Read {
				return immutable("read")
			}
			if *p.Read {
				m.MarkRead(s.now())
			}
		}
		set(&m.Subject, p.Subject)
		set(&m.Content, p.Content)
		return nil
	})
}
