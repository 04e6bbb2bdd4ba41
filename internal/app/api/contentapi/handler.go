// internal/app/api/contentapi/handler.go
//
// contentapi serves the tenant content collections: courses, batches,
// recordings, payments, and blog posts. Every read and write is bound to the
// caller's tenant scope; a super-admin sees across tenants but must name an
// organization on writes.
package contentapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/classdeck/classdeck/internal/app/api/respond"
	batchstore "github.com/classdeck/classdeck/internal/app/store/batches"
	blogstore "github.com/classdeck/classdeck/internal/app/store/blog"
	coursestore "github.com/classdeck/classdeck/internal/app/store/courses"
	paymentstore "github.com/classdeck/classdeck/internal/app/store/payments"
	recordingstore "github.com/classdeck/classdeck/internal/app/store/recordings"
	"github.com/classdeck/classdeck/internal/app/system/auth"
	"github.com/classdeck/classdeck/internal/app/system/authz"
	"github.com/classdeck/classdeck/internal/app/system/timeouts"
	"github.com/classdeck/classdeck/internal/domain/models"
	"github.com/classdeck/classdeck/internal/domain/roles"
)

type Handler struct {
	Courses    *coursestore.Store
	Batches    *batchstore.Store
	Recordings *recordingstore.Store
	Payments   *paymentstore.Store
	Blog       *blogstore.Store
	Log        *zap.Logger
}

func NewHandler(courses *coursestore.Store, batches *batchstore.Store, recordings *recordingstore.Store,
	payments *paymentstore.Store, blog *blogstore.Store, log *zap.Logger) *Handler {
	return &Handler{
		Courses:    courses,
		Batches:    batches,
		Recordings: recordings,
		Payments:   payments,
		Blog:       blog,
		Log:        log,
	}
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	manage := auth.RequireRole(roles.Admin, roles.SuperAdmin)
	teach := auth.RequireRole(roles.Teacher, roles.Admin, roles.SuperAdmin)

	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.With(manage).Post("/", h.CreateCourse)
		r.With(manage).Put("/{id}", h.UpdateCourse)
		r.With(manage).Delete("/{id}", h.DeleteCourse)
	})
	r.Route("/batches", func(r chi.Router) {
		r.Get("/", h.ListBatches)
		r.With(manage).Post("/", h.CreateBatch)
		r.With(manage).Put("/{id}", h.UpdateBatch)
		r.With(manage).Delete("/{id}", h.DeleteBatch)
	})
	r.Route("/recordings", func(r chi.Router) {
		r.Get("/", h.ListRecordings)
		r.With(teach).Post("/", h.CreateRecording)
		r.With(teach).Put("/{id}", h.UpdateRecording)
		r.With(manage).Delete("/{id}", h.DeleteRecording)
	})
	r.Route("/payments", func(r chi.Router) {
		r.With(manage).Get("/", h.ListPayments)
		r.With(manage).Post("/", h.CreatePayment)
		r.With(manage).Put("/{id}/status", h.SetPaymentStatus)
		r.With(manage).Delete("/{id}", h.DeletePayment)
	})
	r.Route("/blog", func(r chi.Router) {
		r.Get("/", h.ListBlogPosts)
		r.With(teach).Post("/", h.CreateBlogPost)
		r.With(teach).Put("/{id}", h.UpdateBlogPost)
		r.With(manage).Put("/{id}/published", h.SetBlogPublished)
		r.With(manage).Delete("/{id}", h.DeleteBlogPost)
	})
	return r
}

func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "malformed id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func scopeOf(w http.ResponseWriter, r *http.Request) (*primitive.ObjectID, authz.Actor, bool) {
	actor, _ := authz.ActorFromRequest(r)
	scope, ok := actor.ScopeFor()
	if !ok {
		respond.Error(w, http.StatusForbidden, "no usable tenant scope")
		return nil, actor, false
	}
	return scope, actor, true
}

func listParams(r *http.Request) (limit int64, useCache bool) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}
	return limit, r.URL.Query().Get("cache") != "false"
}

// writeOrg resolves the organization a write lands in: the actor's own
// tenant, or the body value for super-admins.
func writeOrg(w http.ResponseWriter, actor authz.Actor, bodyOrg string) (primitive.ObjectID, bool) {
	if !actor.IsSuperAdmin() {
		if actor.OrganizationID == nil {
			respond.Error(w, http.StatusForbidden, "no usable tenant scope")
			return primitive.NilObjectID, false
		}
		return *actor.OrganizationID, true
	}
	oid, err := primitive.ObjectIDFromHex(bodyOrg)
	if err != nil {
		respond.Error(w, http.StatusUnprocessableEntity, "organization_id is required")
		return primitive.NilObjectID, false
	}
	return oid, true
}

/* courses */

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)
	var (
		courses []models.Course
		err     error
	)
	if st := r.URL.Query().Get("status"); st != "" {
		courses, err = h.Courses.ForTenant(scope).GetByStatus(ctx, st, limit, useCache)
	} else {
		courses, err = h.Courses.ForTenant(scope).GetAll(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"courses": courses})
}

type courseRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Schedule       string `json:"schedule"`
	OrganizationID string `json:"organization_id"`
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var req courseRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	orgID, ok := writeOrg(w, actor, req.OrganizationID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	course, err := h.Courses.ForTenant(scope).Create(ctx, models.Course{
		Title:          req.Title,
		Description:    req.Description,
		Schedule:       req.Schedule,
		OrganizationID: orgID,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "create course", err)
		return
	}
	respond.JSON(w, http.StatusCreated, course)
}

type courseUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	Status      string `json:"status"`
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req courseUpdateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Courses.ForTenant(scope)
	err := sc.Update(ctx, id, models.Course{
		Title:       req.Title,
		Description: req.Description,
		Schedule:    req.Schedule,
		Status:      req.Status,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "update course", err)
		return
	}
	course, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload course", err)
		return
	}
	respond.JSON(w, http.StatusOK, course)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete course", func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error {
		return h.Courses.ForTenant(scope).Delete(ctx, id)
	})
}

// deleteByID is the shared scope-check/id-parse/delete shape for the content
// collections. None of these deletes cascade.
func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, op string,
	del func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := del(ctx, scope, id); err != nil {
		respond.StoreError(w, h.Log, op, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

/* batches */

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)
	sc := h.Batches.ForTenant(scope)

	var (
		batches []models.Batch
		err     error
	)
	switch {
	case r.URL.Query().Get("course_id") != "":
		cid, idErr := primitive.ObjectIDFromHex(r.URL.Query().Get("course_id"))
		if idErr != nil {
			respond.Error(w, http.StatusBadRequest, "malformed course id")
			return
		}
		batches, err = sc.GetByCourse(ctx, cid, limit, useCache)
	case r.URL.Query().Get("teacher_id") != "":
		batches, err = sc.GetByTeacher(ctx, r.URL.Query().Get("teacher_id"), limit, useCache)
	default:
		batches, err = sc.GetAll(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"batches": batches})
}

type batchRequest struct {
	Name           string `json:"name"`
	CourseID       string `json:"course_id"`
	TeacherID      string `json:"teacher_id"`
	OrganizationID string `json:"organization_id"`
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var req batchRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	orgID, ok := writeOrg(w, actor, req.OrganizationID)
	if !ok {
		return
	}

	b := models.Batch{
		Name:           req.Name,
		TeacherID:      req.TeacherID,
		OrganizationID: orgID,
	}
	if req.CourseID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CourseID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "malformed course id")
			return
		}
		b.CourseID = &cid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	batch, err := h.Batches.ForTenant(scope).Create(ctx, b)
	if err != nil {
		respond.StoreError(w, h.Log, "create batch", err)
		return
	}
	respond.JSON(w, http.StatusCreated, batch)
}

type batchUpdateRequest struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	Status    string `json:"status"`
}

func (h *Handler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req batchUpdateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Batches.ForTenant(scope)
	err := sc.Update(ctx, id, models.Batch{
		Name:      req.Name,
		TeacherID: req.TeacherID,
		Status:    req.Status,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "update batch", err)
		return
	}
	batch, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload batch", err)
		return
	}
	respond.JSON(w, http.StatusOK, batch)
}

func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete batch", func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error {
		return h.Batches.ForTenant(scope).Delete(ctx, id)
	})
}

/* recordings */

func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)
	sc := h.Recordings.ForTenant(scope)

	var (
		recs []models.Recording
		err  error
	)
	switch {
	case r.URL.Query().Get("course_id") != "":
		cid, idErr := primitive.ObjectIDFromHex(r.URL.Query().Get("course_id"))
		if idErr != nil {
			respond.Error(w, http.StatusBadRequest, "malformed course id")
			return
		}
		recs, err = sc.GetByCourse(ctx, cid, limit, useCache)
	case r.URL.Query().Get("batch_id") != "":
		bid, idErr := primitive.ObjectIDFromHex(r.URL.Query().Get("batch_id"))
		if idErr != nil {
			respond.Error(w, http.StatusBadRequest, "malformed batch id")
			return
		}
		recs, err = sc.GetByBatch(ctx, bid, limit, useCache)
	default:
		recs, err = sc.GetAll(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"recordings": recs})
}

type recordingRequest struct {
	Title          string `json:"title"`
	VideoURL       string `json:"video_url"`
	CourseID       string `json:"course_id"`
	BatchID        string `json:"batch_id"`
	OrganizationID string `json:"organization_id"`
}

func (h *Handler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var req recordingRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	orgID, ok := writeOrg(w, actor, req.OrganizationID)
	if !ok {
		return
	}

	rec := models.Recording{
		Title:          req.Title,
		VideoURL:       req.VideoURL,
		OrganizationID: orgID,
	}
	if req.CourseID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CourseID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "malformed course id")
			return
		}
		rec.CourseID = &cid
	}
	if req.BatchID != "" {
		bid, err := primitive.ObjectIDFromHex(req.BatchID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "malformed batch id")
			return
		}
		rec.BatchID = &bid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Recordings.ForTenant(scope).Create(ctx, rec)
	if err != nil {
		respond.StoreError(w, h.Log, "create recording", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

type recordingUpdateRequest struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
	Status   string `json:"status"`
}

func (h *Handler) UpdateRecording(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req recordingUpdateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Recordings.ForTenant(scope)
	err := sc.Update(ctx, id, models.Recording{
		Title:    req.Title,
		VideoURL: req.VideoURL,
		Status:   req.Status,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "update recording", err)
		return
	}
	rec, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload recording", err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (h *Handler) DeleteRecording(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete recording", func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error {
		return h.Recordings.ForTenant(scope).Delete(ctx, id)
	})
}

/* payments */

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)
	sc := h.Payments.ForTenant(scope)

	var (
		payments []models.Payment
		err      error
	)
	switch {
	case r.URL.Query().Get("student_id") != "":
		payments, err = sc.GetByStudent(ctx, r.URL.Query().Get("student_id"), limit, useCache)
	case r.URL.Query().Get("status") != "":
		payments, err = sc.GetByStatus(ctx, r.URL.Query().Get("status"), limit, useCache)
	default:
		payments, err = sc.GetAll(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := map[string]any{"payments": payments}
	if st := r.URL.Query().Get("status"); st != "" {
		if n, err := sc.CountByStatus(ctx, st); err == nil {
			payload["total"] = n
		}
	} else if n, err := sc.Count(ctx); err == nil {
		payload["total"] = n
	}
	respond.JSON(w, http.StatusOK, payload)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete payment", func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error {
		return h.Payments.ForTenant(scope).Delete(ctx, id)
	})
}

type paymentRequest struct {
	StudentID      string `json:"student_id"`
	CourseID       string `json:"course_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Note           string `json:"note"`
	OrganizationID string `json:"organization_id"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	orgID, ok := writeOrg(w, actor, req.OrganizationID)
	if !ok {
		return
	}

	p := models.Payment{
		StudentID:      req.StudentID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Note:           req.Note,
		OrganizationID: orgID,
	}
	if req.CourseID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CourseID)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "malformed course id")
			return
		}
		p.CourseID = &cid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Payments.ForTenant(scope).Create(ctx, p)
	if err != nil {
		respond.StoreError(w, h.Log, "create payment", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

type paymentStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// SetPaymentStatus moves a payment through its lifecycle. The amount and the
// student linkage are immutable; corrections are new records.
func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Payments.ForTenant(scope)
	if err := sc.SetStatus(ctx, id, req.Status, req.Note); err != nil {
		respond.StoreError(w, h.Log, "set payment status", err)
		return
	}
	payment, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload payment", err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

/* blog */

func (h *Handler) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	limit, useCache := listParams(r)
	sc := h.Blog.ForTenant(scope)

	var (
		posts []models.BlogPost
		err   error
	)
	// Non-admin readers only ever see published posts.
	if actor.IsAdmin() && r.URL.Query().Get("drafts") == "true" {
		posts, err = sc.GetAll(ctx, limit, useCache)
	} else {
		posts, err = sc.GetPublished(ctx, limit, useCache)
	}
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := sc.Count(ctx)
	if err != nil {
		h.Log.Warn("blog post count failed", zap.Error(err))
		total = int64(len(posts))
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
	})
}

type blogRequest struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	Published      bool   `json:"published"`
	OrganizationID string `json:"organization_id"`
}

func (h *Handler) CreateBlogPost(w http.ResponseWriter, r *http.Request) {
	scope, actor, ok := scopeOf(w, r)
	if !ok {
		return
	}
	var req blogRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	orgID, ok := writeOrg(w, actor, req.OrganizationID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, err := h.Blog.ForTenant(scope).Create(ctx, models.BlogPost{
		Title:          req.Title,
		Body:           req.Body,
		AuthorID:       actor.UserID,
		Published:      req.Published,
		OrganizationID: orgID,
	})
	if err != nil {
		respond.StoreError(w, h.Log, "create blog post", err)
		return
	}
	respond.JSON(w, http.StatusCreated, post)
}

type blogUpdateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) UpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req blogUpdateRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Blog.ForTenant(scope)
	if err := sc.Update(ctx, id, models.BlogPost{Title: req.Title, Body: req.Body}); err != nil {
		respond.StoreError(w, h.Log, "update blog post", err)
		return
	}
	post, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload blog post", err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

func (h *Handler) DeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete blog post",
		func(ctx context.Context, scope *primitive.ObjectID, id primitive.ObjectID) error {
			return h.Blog.ForTenant(scope).Delete(ctx, id)
		})
}

type publishRequest struct {
	Published bool `json:"published"`
}

func (h *Handler) SetBlogPublished(w http.ResponseWriter, r *http.Request) {
	scope, _, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req publishRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc := h.Blog.ForTenant(scope)
	if err := sc.SetPublished(ctx, id, req.Published); err != nil {
		respond.StoreError(w, h.Log, "set blog post published", err)
		return
	}
	post, err := sc.GetByID(ctx, id)
	if err != nil {
		respond.StoreError(w, h.Log, "reload blog post", err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}
