package yamdb

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// APIController exposes the services over HTTP.
type APIController struct {
	Logger  Logger
	Auth    *AuthFlow
	Users   *UserService
	Catalog *CatalogService
	Reviews *ReviewService
	Guard   *RouteAuthenticator
	Prefix  string
}

// APIControllerOption configures an APIController.
type APIControllerOption func(*APIController) *APIController

// WithAPIPrefix overrides the default /api/v1 prefix.
func WithAPIPrefix(prefix string) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Prefix = prefix
		return c
	}
}

// WithAPILogger sets the controller logger.
func WithAPILogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// NewAPIController builds the controller. Every service is required.
func NewAPIController(auth *AuthFlow, users *UserService, catalog *CatalogService, reviews *ReviewService, guard *RouteAuthenticator, opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger:  defLogger{},
		Auth:    auth,
		Users:   users,
		Catalog: catalog,
		Reviews: reviews,
		Guard:   guard,
		Prefix:  "/api/v1",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil || c.Users == nil || c.Catalog == nil || c.Reviews == nil {
		panic("Missing service in API controller...")
	}

	if c.Guard == nil {
		panic("Missing RouteAuthenticator in API controller...")
	}

	return c
}

// RegisterRoutes mounts every endpoint on app.
func (a *APIController) RegisterRoutes(app fiber.Router) {
	api := app.Group(a.Prefix)
	protected := a.Guard.ProtectedRoute()
	optional := a.Guard.OptionalRoute()

	api.Post("/auth/signup", a.SignUp)
	api.Post("/auth/token", a.Token)

	users := api.Group("/users", protected)
	users.Get("/me", a.GetMe)
	users.Patch("/me", a.PatchMe)
	users.Get("/", a.ListUsers)
	users.Post("/", a.CreateUser)
	users.Get("/:username", a.GetUser)
	users.Patch("/:username", a.PatchUser)
	users.Delete("/:username", a.DeleteUser)

	categories := api.Group("/categories", optional)
	categories.Get("/", a.ListCategories)
	categories.Post("/", a.CreateCategory)
	categories.Delete("/:slug", a.DeleteCategory)

	genres := api.Group("/genres", optional)
	genres.Get("/", a.ListGenres)
	genres.Post("/", a.CreateGenre)
	genres.Delete("/:slug", a.DeleteGenre)

	titles := api.Group("/titles", optional)
	titles.Get("/", a.ListTitles)
	titles.Post("/", a.CreateTitle)
	titles.Get("/:title_id", a.GetTitle)
	titles.Patch("/:title_id", a.PatchTitle)
	titles.Delete("/:title_id", a.DeleteTitle)

	titles.Get("/:title_id/reviews", a.ListReviews)
	titles.Post("/:title_id/reviews", a.CreateReview)
	titles.Get("/:title_id/reviews/:review_id", a.GetReview)
	titles.Patch("/:title_id/reviews/:review_id", a.PatchReview)
	titles.Delete("/:title_id/reviews/:review_id", a.DeleteReview)

	titles.Get("/:title_id/reviews/:review_id/comments", a.ListComments)
	titles.Post("/:title_id/reviews/:review_id/comments", a.CreateComment)
	titles.Get("/:title_id/reviews/:review_id/comments/:comment_id", a.GetComment)
	titles.Patch("/:title_id/reviews/:review_id/comments/:comment_id", a.PatchComment)
	titles.Delete("/:title_id/reviews/:review_id/comments/:comment_id", a.DeleteComment)
}

// ListResponse is the envelope for paginated lists.
type ListResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func listOf[T any](items []T, count int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Count: count, Results: items}
}

// ReviewResponse is the wire shape of a review.
type ReviewResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// CommentResponse is the wire shape of a comment.
type CommentResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func reviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{ID: r.ID, Text: r.Text, Author: r.AuthorUsername(), Score: r.Score, PubDate: r.PubDate}
}

func commentResponse(c *Comment) CommentResponse {
	return CommentResponse{ID: c.ID, Text: c.Text, Author: c.AuthorUsername(), PubDate: c.PubDate}
}

func titleResponse(t *Title) *Title {
	if t != nil && t.Genres == nil {
		t.Genres = []*Genre{}
	}
	return t
}

func (a *APIController) SignUp(c *fiber.Ctx) error {
	var msg SignUpMessage
	if err := bindJSON(c, &msg); err != nil {
		return err
	}

	res, err := a.Auth.SignUp(c.UserContext(), msg)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (a *APIController) Token(c *fiber.Ctx) error {
	var msg TokenExchangeMessage
	if err := bindJSON(c, &msg); err != nil {
		return err
	}

	res, err := a.Auth.ExchangeToken(c.UserContext(), msg)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (a *APIController) GetMe(c *fiber.Ctx) error {
	user, err := a.Users.Me(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (a *APIController) PatchMe(c *fiber.Ctx) error {
	var patch UserPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}

	user, err := a.Users.UpdateMe(c.UserContext(), actorFrom(c), patch)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (a *APIController) ListUsers(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	records, count, err := a.Users.List(c.UserContext(), actorFrom(c), c.Query("search"), page)
	if err != nil {
		return err
	}
	return c.JSON(listOf(records, count))
}

func (a *APIController) CreateUser(c *fiber.Ctx) error {
	var in UserInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	user, err := a.Users.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (a *APIController) GetUser(c *fiber.Ctx) error {
	user, err := a.Users.Get(c.UserContext(), actorFrom(c), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (a *APIController) PatchUser(c *fiber.Ctx) error {
	var patch UserPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}

	user, err := a.Users.Update(c.UserContext(), actorFrom(c), c.Params("username"), patch)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (a *APIController) DeleteUser(c *fiber.Ctx) error {
	if err := a.Users.Delete(c.UserContext(), actorFrom(c), c.Params("username")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) ListCategories(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	records, count, err := a.Catalog.ListCategories(c.UserContext(), c.Query("search"), page)
	if err != nil {
		return err
	}
	return c.JSON(listOf(records, count))
}

func (a *APIController) CreateCategory(c *fiber.Ctx) error {
	var in CatalogInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Catalog.CreateCategory(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (a *APIController) DeleteCategory(c *fiber.Ctx) error {
	if err := a.Catalog.DeleteCategory(c.UserContext(), actorFrom(c), c.Params("slug")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) ListGenres(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	records, count, err := a.Catalog.ListGenres(c.UserContext(), c.Query("search"), page)
	if err != nil {
		return err
	}
	return c.JSON(listOf(records, count))
}

func (a *APIController) CreateGenre(c *fiber.Ctx) error {
	var in CatalogInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Catalog.CreateGenre(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (a *APIController) DeleteGenre(c *fiber.Ctx) error {
	if err := a.Catalog.DeleteGenre(c.UserContext(), actorFrom(c), c.Params("slug")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) ListTitles(c *fiber.Ctx) error {
	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	filter := TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return ValidationError(map[string]string{"year": "must be an integer"})
		}
		filter.Year = year
	}

	records, count, err := a.Catalog.ListTitles(c.UserContext(), filter, page)
	if err != nil {
		return err
	}
	for _, t := range records {
		titleResponse(t)
	}
	return c.JSON(listOf(records, count))
}

func (a *APIController) CreateTitle(c *fiber.Ctx) error {
	var in TitleInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Catalog.CreateTitle(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(titleResponse(record))
}

func (a *APIController) GetTitle(c *fiber.Ctx) error {
	id, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return err
	}

	record, err := a.Catalog.GetTitle(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(titleResponse(record))
}

func (a *APIController) PatchTitle(c *fiber.Ctx) error {
	id, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return err
	}

	var patch TitlePatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}

	record, err := a.Catalog.UpdateTitle(c.UserContext(), actorFrom(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(titleResponse(record))
}

func (a *APIController) DeleteTitle(c *fiber.Ctx) error {
	id, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return err
	}

	if err := a.Catalog.DeleteTitle(c.UserContext(), actorFrom(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) ListReviews(c *fiber.Ctx) error {
	titleID, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	records, count, err := a.Reviews.ListReviews(c.UserContext(), titleID, page)
	if err != nil {
		return err
	}

	out := make([]ReviewResponse, 0, len(records))
	for _, r := range records {
		out = append(out, reviewResponse(r))
	}
	return c.JSON(listOf(out, count))
}

func (a *APIController) CreateReview(c *fiber.Ctx) error {
	titleID, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return err
	}

	var in ReviewInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Reviews.CreateReview(c.UserContext(), actorFrom(c), titleID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(reviewResponse(record))
}

func (a *APIController) GetReview(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	record, err := a.Reviews.GetReview(c.UserContext(), titleID, reviewID)
	if err != nil {
		return err
	}
	return c.JSON(reviewResponse(record))
}

func (a *APIController) PatchReview(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	var patch ReviewPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}

	record, err := a.Reviews.UpdateReview(c.UserContext(), actorFrom(c), titleID, reviewID, patch)
	if err != nil {
		return err
	}
	return c.JSON(reviewResponse(record))
}

func (a *APIController) DeleteReview(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	if err := a.Reviews.DeleteReview(c.UserContext(), actorFrom(c), titleID, reviewID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *APIController) ListComments(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}

	records, count, err := a.Reviews.ListComments(c.UserContext(), titleID, reviewID, page)
	if err != nil {
		return err
	}

	out := make([]CommentResponse, 0, len(records))
	for _, r := range records {
		out = append(out, commentResponse(r))
	}
	return c.JSON(listOf(out, count))
}

func (a *APIController) CreateComment(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	var in CommentInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Reviews.CreateComment(c.UserContext(), actorFrom(c), titleID, reviewID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(commentResponse(record))
}

func (a *APIController) GetComment(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	commentID, err := uuidParam(c, "comment_id", "comment")
	if err != nil {
		return err
	}

	record, err := a.Reviews.GetComment(c.UserContext(), titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(commentResponse(record))
}

func (a *APIController) PatchComment(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	commentID, err := uuidParam(c, "comment_id", "comment")
	if err != nil {
		return err
	}

	var in CommentInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}

	record, err := a.Reviews.UpdateComment(c.UserContext(), actorFrom(c), titleID, reviewID, commentID, in)
	if err != nil {
		return err
	}
	return c.JSON(commentResponse(record))
}

func (a *APIController) DeleteComment(c *fiber.Ctx) error {
	titleID, reviewID, err := reviewParams(c)
	if err != nil {
		return err
	}

	commentID, err := uuidParam(c, "comment_id", "comment")
	if err != nil {
		return err
	}

	if err := a.Reviews.DeleteComment(c.UserContext(), actorFrom(c), titleID, reviewID, commentID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func bindJSON(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return ValidationError(map[string]string{"non_field_errors": "malformed request body"})
	}
	return nil
}

func pageFrom(c *fiber.Ctx) (Page, error) {
	var page Page
	fields := map[string]string{}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["limit"] = "must be a non negative integer"
		}
		page.Limit = n
	}

	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["offset"] = "must be a non negative integer"
		}
		page.Offset = n
	}

	if len(fields) > 0 {
		return Page{}, ValidationError(fields)
	}
	return page, nil
}

func uuidParam(c *fiber.Ctx, name, resource string) (uuid.UUID, error) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, NotFoundError(resource, raw)
	}
	return id, nil
}

func reviewParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	titleID, err := uuidParam(c, "title_id", "title")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	reviewID, err := uuidParam(c, "review_id", "review")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return titleID, reviewID, nil
}
