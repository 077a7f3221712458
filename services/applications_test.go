package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/navia-app/navia/models"
)

func TestApplicationS_CRUD(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewApplicationService(db)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	app, err := svc.Create(ctx, alice.ID, ApplicationInput{
		CompanyName: "Acme <script>alert(1)</script>",
		JobTitle:    "Backend Engineer",
		Notes:       "<p>referral</p><script>x</script>",
	})
	require.NoError(t, err)
	assert.Len(t, app.ID, 36)
	assert.Equal(t, models.StatusApplied, app.Status)
	assert.Equal(t, "Acme", app.CompanyName)
	assert.Equal(t, "<p>referral</p>", app.Notes)
	assert.False(t, app.AppliedDate.IsZero())

	_, err = svc.Create(ctx, alice.ID, ApplicationInput{CompanyName: "Beta", JobTitle: "SRE", Status: "ghosted"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Get(ctx, bob.ID, app.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound, "other users cannot read it")

	status := models.StatusInterviewing
	notes := "phone screen booked"
	updated, err := svc.Update(ctx, alice.ID, app.ID, ApplicationPatch{Status: &status, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterviewing, updated.Status)
	assert.Equal(t, "Acme", updated.CompanyName)

	bad := models.ApplicationStatus("ghosted")
	_, err = svc.Update(ctx, alice.ID, app.ID, ApplicationPatch{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Create(ctx, alice.ID, ApplicationInput{CompanyName: "Beta", JobTitle: "SRE"})
	require.NoError(t, err)

	all, err := svc.List(ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	interviewing, err := svc.List(ctx, alice.ID, models.StatusInterviewing)
	require.NoError(t, err)
	require.Len(t, interviewing, 1)
	assert.Equal(t, app.ID, interviewing[0].ID)
	none, err := svc.List(ctx, bob.ID, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.ErrorIs(t, svc.Delete(ctx, bob.ID, app.ID), ErrApplicationNotFound)
	require.NoError(t, svc.Delete(ctx, alice.ID, app.ID))
	_, err = svc.Get(ctx, alice.ID, app.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestWriteApplicationsXLSX(t *testing.T) {
	t.Parallel()

	apps := []models.JobApplication{
		{CompanyName: "Acme", JobTitle: "SWE", Status: models.StatusOffer, Location: "Remote"},
		{CompanyName: "Beta", JobTitle: "SRE", Status: models.StatusRejected},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteApplicationsXLSX(&buf, apps))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Applications")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Company", rows[0][0])
	assert.Equal(t, []string{"Acme", "SWE", "offer"}, rows[1][:3])
	assert.Equal(t, "Beta", rows[2][0])
}

func TestWritePracticeXLSX(t *testing.T) {
	t.Parallel()

	stats := []models.DailyStat{
		{Date: "2024-03-02", Goal: 3, Answered: 3, Score: 20, Streak: 2},
		{Date: "2024-03-01", Goal: 3, Answered: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WritePracticeXLSX(&buf, stats))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Practice")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-03-02", "3", "3", "20", "2", "yes"}, rows[1])
	assert.Equal(t, "no", rows[2][5])
}

func TestQuestionnaireS_SaveUpserts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewQuestionnaireService(db)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")

	_, err := svc.Get(ctx, alice.ID)
	require.ErrorIs(t, err, ErrQuestionnaireNotFound)

	q, err := svc.Save(ctx, alice.ID, QuestionnaireInput{CareerGoal: "Data Scientist", ExperienceLevel: "entry"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(q.Answers))

	q, err = svc.Save(ctx, alice.ID, QuestionnaireInput{
		CareerGoal:      "ML Engineer",
		ExperienceLevel: "mid",
		Answers:         json.RawMessage(`{"languages":["go","python"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", q.CareerGoal)
	assert.JSONEq(t, `{"languages":["go","python"]}`, string(q.Answers))

	var n int64
	require.NoError(t, db.Model(&models.Questionnaire{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	user, err := NewUserService(db).Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", user.CareerGoal)

	_, err = svc.Save(ctx, alice.ID, QuestionnaireInput{CareerGoal: "x", Answers: json.RawMessage(`{bad`)})
	require.ErrorIs(t, err, ErrInvalidAnswers)

	require.NoError(t, svc.Delete(ctx, alice.ID))
	require.ErrorIs(t, svc.Delete(ctx, alice.ID), ErrQuestionnaireNotFound)
}
