// internal/app/provision/provision_test.go
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
	"github.com/classdeck/classdeck/internal/app/system/identity"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

/* fakes */

type fakeProfiles struct {
	byID            map[string]models.UserProfile
	nextGen         int
	failCreates     bool
	getByEmailCalls int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: make(map[string]models.UserProfile)}
}

func (f *fakeProfiles) Create(ctx context.Context, u models.UserProfile) (models.UserProfile, error) {
	f.nextGen++
	return f.CreateWithID(ctx, fmt.Sprintf("gen-%d", f.nextGen), u)
}

func (f *fakeProfiles) CreateWithID(_ context.Context, id string, u models.UserProfile) (models.UserProfile, error) {
	if f.failCreates {
		return models.UserProfile{}, errors.New("write failed")
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return models.UserProfile{}, errors.New("duplicate email")
		}
	}
	u.ID = id
	f.byID[id] = u
	return u, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.UserProfile, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &u, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	f.getByEmailCalls++
	for _, u := range f.byID {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (f *fakeProfiles) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return docstore.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeMarkers struct {
	recorded []models.Reconciliation
	fail     bool
}

func (f *fakeMarkers) Record(_ context.Context, r models.Reconciliation) (models.Reconciliation, error) {
	if f.fail {
		return models.Reconciliation{}, errors.New("marker write failed")
	}
	r.ID = primitive.NewObjectID()
	f.recorded = append(f.recorded, r)
	return r, nil
}

/* helpers */

func testWorkflow(t *testing.T) (*Workflow, *identity.Memory, *fakeProfiles, *fakeMarkers) {
	t.Helper()
	provider := identity.NewMemory([]byte("test-key"))
	profiles := newFakeProfiles()
	markers := &fakeMarkers{}
	return New(provider, profiles, markers, zap.NewNop()), provider, profiles, markers
}

func studentInput() Input {
	orgID := primitive.NewObjectID()
	return Input{
		Email:    "Student@Example.com",
		Name:     "  Sam Student  ",
		Password: "long-enough-pass",
		Role:     roles.Student,
		Profile: models.UserProfile{
			OrganizationID: &orgID,
			ClassIDs:       []string{"class-1"},
		},
	}
}

func teacherInput() Input {
	orgID := primitive.NewObjectID()
	return Input{
		Email: "teacher@example.com",
		Name:  "Tess Teacher",
		Role:  roles.Teacher,
		Profile: models.UserProfile{
			OrganizationID: &orgID,
		},
	}
}

/* tests */

func TestProvisionHappyPath(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, markers := testWorkflow(t)

	res, err := w.Provision(ctx, studentInput())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if !res.LinkedIdentity {
		t.Fatal("expected a linked identity")
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning: %q", res.Warning)
	}

	// Profile is keyed by the provider's subject: signing in resolves it.
	sess, err := provider.SignIn(ctx, "student@example.com", "long-enough-pass")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if res.Profile.ID != sess.Account.Subject {
		t.Fatalf("profile id %q != subject %q", res.Profile.ID, sess.Account.Subject)
	}
	if _, ok := profiles.byID[sess.Account.Subject]; !ok {
		t.Fatal("profile not stored under the subject id")
	}

	// Input was normalized on the way in.
	if res.Profile.Email != "student@example.com" {
		t.Fatalf("email not normalized: %q", res.Profile.Email)
	}
	if res.Profile.Name != "Sam Student" {
		t.Fatalf("name not trimmed: %q", res.Profile.Name)
	}
	if len(markers.recorded) != 0 {
		t.Fatalf("clean run must not record markers: %+v", markers.recorded)
	}
}

func TestProvisionCollectsAllFieldErrors(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, _ := testWorkflow(t)

	in := Input{
		Email:    "not-an-email",
		Name:     "",
		Password: "short",
		Role:     roles.Role("owner"),
	}
	_, err := w.Provision(ctx, in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range verr.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"email", "name", "password", "role"} {
		if !got[want] {
			t.Errorf("missing field error for %q in %v", want, verr.Fields)
		}
	}

	// Validation failure means nothing was written anywhere.
	if len(profiles.byID) != 0 {
		t.Fatal("profiles written despite validation failure")
	}
	if _, err := provider.SignIn(ctx, "not-an-email", "short"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatal("identity account written despite validation failure")
	}
}

func TestProvisionRoleInvariants(t *testing.T) {
	ctx := context.Background()
	w, _, _, _ := testWorkflow(t)

	// Student without classes.
	in := studentInput()
	in.Profile.ClassIDs = nil
	_, err := w.Provision(ctx, in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error, got %v", err)
	}

	// Super-admin with an organization.
	orgID := primitive.NewObjectID()
	in = Input{
		Email:    "root@example.com",
		Name:     "Root",
		Password: "long-enough-pass",
		Role:     roles.SuperAdmin,
		Profile:  models.UserProfile{OrganizationID: &orgID},
	}
	if _, err := w.Provision(ctx, in); !errors.As(err, &verr) {
		t.Fatalf("super-admin with org must fail validation, got %v", err)
	}
}

func TestProvisionDuplicateEmailAtProvider(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, _ := testWorkflow(t)

	if _, err := provider.CreateAccount(ctx, "student@example.com", "existing-pass", ""); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	_, err := w.Provision(ctx, studentInput())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error, got %v", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "email" {
		t.Fatalf("want a single email conflict, got %+v", verr.Fields)
	}
	// The conflict must tell the operator what to do next, not just that
	// it happened.
	if !strings.Contains(verr.Fields[0].Message, "repair") {
		t.Errorf("conflict message %q does not point at the repair endpoint", verr.Fields[0].Message)
	}
	if len(profiles.byID) != 0 {
		t.Fatal("no profile may exist after a provider conflict")
	}
}

func TestProvisionProviderUnavailableFallsBack(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, markers := testWorkflow(t)
	provider.FailCreates = true

	res, err := w.Provision(ctx, studentInput())
	if err != nil {
		t.Fatalf("unavailable provider must degrade, not fail: %v", err)
	}
	if res.LinkedIdentity {
		t.Error("no identity can be linked while the provider is down")
	}
	if res.Warning == "" {
		t.Error("fallback must carry a warning")
	}
	if !strings.HasPrefix(res.Profile.ID, "gen-") {
		t.Errorf("fallback profile must use a generated id, got %q", res.Profile.ID)
	}
	if len(profiles.byID) != 1 {
		t.Fatalf("want one profile, got %d", len(profiles.byID))
	}
	if len(markers.recorded) != 1 || markers.recorded[0].Kind != models.ReconcileUnlinkedProfile {
		t.Fatalf("want one unlinked_profile marker, got %+v", markers.recorded)
	}
}

func TestProvisionProfileWriteFailureRecordsMarker(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, markers := testWorkflow(t)
	profiles.failCreates = true

	_, err := w.Provision(ctx, studentInput())
	if err == nil {
		t.Fatal("want an error when the profile write fails")
	}
	if !strings.Contains(err.Error(), "identity") {
		t.Fatalf("error must mention the kept identity: %v", err)
	}

	// The identity account survives; provisioning never rolls back.
	if _, err := provider.SignIn(ctx, "student@example.com", "long-enough-pass"); err != nil {
		t.Fatalf("identity account should exist: %v", err)
	}

	if len(markers.recorded) != 1 {
		t.Fatalf("want one marker, got %d", len(markers.recorded))
	}
	m := markers.recorded[0]
	if m.Kind != models.ReconcileOrphanedIdentity {
		t.Fatalf("want orphaned_identity, got %q", m.Kind)
	}
	if m.Subject == "" || m.Email != "student@example.com" {
		t.Fatalf("marker missing linkage: %+v", m)
	}
}

func TestProvisionWithoutPassword(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, markers := testWorkflow(t)

	// Teachers may be provisioned without credentials; students may not.
	res, err := w.Provision(ctx, teacherInput())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if res.LinkedIdentity {
		t.Fatal("no-password path must not link an identity")
	}
	if res.Warning == "" {
		t.Fatal("no-password path must surface a warning")
	}
	if !strings.HasPrefix(res.Profile.ID, "gen-") {
		t.Fatalf("expected a generated profile id, got %q", res.Profile.ID)
	}

	if len(markers.recorded) != 1 || markers.recorded[0].Kind != models.ReconcileUnlinkedProfile {
		t.Fatalf("want one unlinked_profile marker, got %+v", markers.recorded)
	}
	if markers.recorded[0].ProfileID != res.Profile.ID {
		t.Fatal("marker must reference the created profile")
	}

	// No credentials were created.
	if _, err := provider.SignIn(ctx, "teacher@example.com", "anything-at-all"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatal("no identity account may exist on the no-password path")
	}
	if len(profiles.byID) != 1 {
		t.Fatalf("want exactly one profile, got %d", len(profiles.byID))
	}
}

func TestProvisionShortPasswordRejectedBeforeAnyCall(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, markers := testWorkflow(t)

	in := studentInput()
	in.Password = "abc12"
	_, err := w.Provision(ctx, in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	found := false
	for _, f := range verr.Fields {
		if f.Field == "password" {
			found = true
		}
	}
	if !found {
		t.Fatalf("want a password length error, got %+v", verr.Fields)
	}

	// Rejected before anything external was touched: no writes, no reads.
	if len(profiles.byID) != 0 || len(markers.recorded) != 0 {
		t.Fatal("validation failure must leave no writes behind")
	}
	if profiles.getByEmailCalls != 0 {
		t.Fatalf("GetByEmail called %d time(s); a rejected submission must cost no store round trip", profiles.getByEmailCalls)
	}
	if _, err := provider.SignIn(ctx, "student@example.com", "abc12"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatal("no identity account may exist after a validation failure")
	}
}

func TestProvisionStudentRequiresPassword(t *testing.T) {
	ctx := context.Background()
	w, _, profiles, _ := testWorkflow(t)

	in := studentInput()
	in.Password = ""
	_, err := w.Provision(ctx, in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	if len(profiles.byID) != 0 {
		t.Fatal("no profile may be written for a student without a password")
	}
}

func TestProvisionDuplicateProfileEmailPrecheck(t *testing.T) {
	ctx := context.Background()
	w, _, profiles, _ := testWorkflow(t)

	orgID := primitive.NewObjectID()
	profiles.byID["existing"] = models.UserProfile{
		ID: "existing", Email: "student@example.com", Role: roles.Student, OrganizationID: &orgID,
	}

	_, err := w.Provision(ctx, studentInput())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error, got %v", err)
	}
	if verr.Fields[0].Field != "email" {
		t.Fatalf("want email conflict, got %+v", verr.Fields)
	}
}

func TestRepairReKeysProfile(t *testing.T) {
	ctx := context.Background()
	w, provider, profiles, _ := testWorkflow(t)

	// Start from an unlinked profile.
	res, err := w.Provision(ctx, teacherInput())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	// The account gets created at the provider later (manually, say).
	acct, err := provider.CreateAccount(ctx, "teacher@example.com", "long-enough-pass", "Tess Teacher")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	repaired, err := w.Repair(ctx, acct.Subject, res.Profile.ID)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if repaired.ID != acct.Subject {
		t.Fatalf("profile not re-keyed: %q", repaired.ID)
	}
	if _, ok := profiles.byID[res.Profile.ID]; ok {
		t.Fatal("old profile document must be gone")
	}
	if _, ok := profiles.byID[acct.Subject]; !ok {
		t.Fatal("profile must live under the subject now")
	}
}

func TestRepairSubjectTaken(t *testing.T) {
	ctx := context.Background()
	w, _, profiles, _ := testWorkflow(t)

	orgID := primitive.NewObjectID()
	profiles.byID["subj-a"] = models.UserProfile{ID: "subj-a", Email: "a@example.com", Role: roles.Teacher, OrganizationID: &orgID}
	profiles.byID["gen-9"] = models.UserProfile{ID: "gen-9", Email: "b@example.com", Role: roles.Teacher, OrganizationID: &orgID}

	if _, err := w.Repair(ctx, "subj-a", "gen-9"); !errors.Is(err, ErrSubjectTaken) {
		t.Fatalf("want ErrSubjectTaken, got %v", err)
	}
}

func TestDeleteProfileRecordsOrphanMarker(t *testing.T) {
	ctx := context.Background()
	w, _, profiles, markers := testWorkflow(t)

	res, err := w.Provision(ctx, studentInput())
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}

	if err := w.DeleteProfile(ctx, res.Profile.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if _, ok := profiles.byID[res.Profile.ID]; ok {
		t.Fatal("profile must be deleted")
	}
	if len(markers.recorded) != 1 || markers.recorded[0].Kind != models.ReconcileOrphanedIdentity {
		t.Fatalf("want one orphaned_identity marker, got %+v", markers.recorded)
	}
	if markers.recorded[0].Subject != res.Profile.ID {
		t.Fatal("marker must carry the orphaned subject")
	}
}
