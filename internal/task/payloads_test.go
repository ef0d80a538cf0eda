package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInsightGenerationPayload_Validate(t *testing.T) {
	t.Parallel()

	valid := InsightGenerationPayload{
		JobID:  uuid.New(),
		UserID: uuid.New(),
		Models: []string{"gemini-2.0-flash"},
	}
	assert.NoError(t, valid.Validate())

	missingJob := valid
	missingJob.JobID = uuid.Nil
	assert.ErrorIs(t, missingJob.Validate(), ErrMissingJob)

	missingUser := valid
	missingUser.UserID = uuid.Nil
	assert.ErrorIs(t, missingUser.Validate(), ErrMissingUser)

	noModels := valid
	noModels.Models = nil
	assert.ErrorIs(t, noModels.Validate(), ErrEmptyModelPipeline)
}

func TestNotificationPayload_Validate(t *testing.T) {
	t.Parallel()

	recipient := uuid.New()
	insightID := uuid.New()
	roomID := uuid.New()
	periodStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload NotificationPayload
		wantErr bool
	}{
		{
			name: "insight alert",
			payload: NotificationPayload{
				Type:        NotificationInsightAlert,
				RecipientID: recipient,
				InsightID:   &insightID,
			},
		},
		{
			name: "insight alert without insight",
			payload: NotificationPayload{
				Type:        NotificationInsightAlert,
				RecipientID: recipient,
			},
			wantErr: true,
		},
		{
			name: "moderation notice",
			payload: NotificationPayload{
				Type:        NotificationModerationNotice,
				RecipientID: recipient,
				RoomID:      &roomID,
				Reason:      "post removed",
			},
		},
		{
			name: "moderation notice without room",
			payload: NotificationPayload{
				Type:        NotificationModerationNotice,
				RecipientID: recipient,
			},
			wantErr: true,
		},
		{
			name: "streak nudge",
			payload: NotificationPayload{
				Type:        NotificationStreakNudge,
				RecipientID: recipient,
				StreakDays:  7,
			},
		},
		{
			name: "streak nudge without streak",
			payload: NotificationPayload{
				Type:        NotificationStreakNudge,
				RecipientID: recipient,
			},
			wantErr: true,
		},
		{
			name: "weekly digest",
			payload: NotificationPayload{
				Type:        NotificationWeeklyDigest,
				RecipientID: recipient,
				PeriodStart: &periodStart,
			},
		},
		{
			name: "weekly digest without period",
			payload: NotificationPayload{
				Type:        NotificationWeeklyDigest,
				RecipientID: recipient,
			},
			wantErr: true,
		},
		{
			name: "biomarker reminder",
			payload: NotificationPayload{
				Type:          NotificationBiomarkerReminder,
				RecipientID:   recipient,
				BiomarkerName: "blood glucose",
			},
		},
		{
			name: "biomarker reminder without name",
			payload: NotificationPayload{
				Type:        NotificationBiomarkerReminder,
				RecipientID: recipient,
			},
			wantErr: true,
		},
		{
			name: "missing recipient",
			payload: NotificationPayload{
				Type:      NotificationInsightAlert,
				InsightID: &insightID,
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			payload: NotificationPayload{
				Type:        NotificationType("MYSTERY"),
				RecipientID: recipient,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWearableSyncPayload_Validate(t *testing.T) {
	t.Parallel()

	valid := WearableSyncPayload{
		IntegrationID:   uuid.New(),
		Provider:        "fitbit",
		RemoteAccountID: "acct-99",
		Reason:          SyncReasonScheduled,
	}
	assert.NoError(t, valid.Validate())

	manual := valid
	manual.Reason = SyncReasonManualRetry
	assert.NoError(t, manual.Validate())

	missingIntegration := valid
	missingIntegration.IntegrationID = uuid.Nil
	assert.ErrorIs(t, missingIntegration.Validate(), ErrMissingIntegration)

	missingAccount := valid
	missingAccount.RemoteAccountID = ""
	assert.Error(t, missingAccount.Validate())

	badReason := valid
	badReason.Reason = SyncReason("whenever")
	assert.ErrorIs(t, badReason.Validate(), ErrInvalidSyncReason)
}
