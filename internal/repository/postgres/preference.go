package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
)

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

type preferenceRow struct {
	UserID         string `db:"user_id"`
	PushEnabled    bool   `db:"push_enabled"`
	EmailEnabled   bool   `db:"email_enabled"`
	SMSEnabled     bool   `db:"sms_enabled"`
	CatBooking     bool   `db:"cat_booking"`
	CatPayment     bool   `db:"cat_payment"`
	CatAcademy     bool   `db:"cat_academy"`
	CatSocial      bool   `db:"cat_social"`
	CatMarketplace bool   `db:"cat_marketplace"`
	QuietEnabled   bool   `db:"quiet_enabled"`
	QuietStart     string `db:"quiet_start"`
	QuietEnd       string `db:"quiet_end"`
	Frequency      string `db:"frequency"`
}

func (row *preferenceRow) toModel() *model.Preferences {
	return &model.Preferences{
		UserID:             row.UserID,
		PushNotifications:  row.PushEnabled,
		EmailNotifications: row.EmailEnabled,
		SMSNotifications:   row.SMSEnabled,
		Categories: model.CategoryPreferences{
			Booking:     row.CatBooking,
			Payment:     row.CatPayment,
			Academy:     row.CatAcademy,
			Social:      row.CatSocial,
			Marketplace: row.CatMarketplace,
		},
		QuietHours: model.QuietHours{
			Enabled: row.QuietEnabled,
			Start:   row.QuietStart,
			End:     row.QuietEnd,
		},
		Frequency: model.Frequency(row.Frequency),
	}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	query := `SELECT * FROM notification_preferences WHERE user_id = $1`
	var row preferenceRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return row.toModel(), nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, prefs *model.Preferences) error {
	query := `
		INSERT INTO notification_preferences (
			user_id, push_enabled, email_enabled, sms_enabled,
			cat_booking, cat_payment, cat_academy, cat_social, cat_marketplace,
			quiet_enabled, quiet_start, quiet_end, frequency
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			push_enabled = EXCLUDED.push_enabled,
			email_enabled = EXCLUDED.email_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			cat_booking = EXCLUDED.cat_booking,
			cat_payment = EXCLUDED.cat_payment,
			cat_academy = EXCLUDED.cat_academy,
			cat_social = EXCLUDED.cat_social,
			cat_marketplace = EXCLUDED.cat_marketplace,
			quiet_enabled = EXCLUDED.quiet_enabled,
			quiet_start = EXCLUDED.quiet_start,
			quiet_end = EXCLUDED.quiet_end,
			frequency = EXCLUDED.frequency
	`
	_, err := r.db.ExecContext(ctx, query,
		prefs.UserID,
		prefs.PushNotifications,
		prefs.EmailNotifications,
		prefs.SMSNotifications,
		prefs.Categories.Booking,
		prefs.Categories.Payment,
		prefs.Categories.Academy,
		prefs.Categories.Social,
		prefs.Categories.Marketplace,
		prefs.QuietHours.Enabled,
		prefs.QuietHours.Start,
		prefs.QuietHours.End,
		prefs.Frequency,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}
