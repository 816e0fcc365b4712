package handlers

import (
	"errors"
	"log"
	"time"

	"quiz-arena-system/middleware"
	"quiz-arena-system/models"
	"quiz-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps service sentinels to HTTP status codes. Unknown errors
// are internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrNotCreator),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotEligible):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrAlreadyJoined),
		errors.Is(err, services.ErrMatchFull),
		errors.Is(err, services.ErrTeamFull):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrSelfChallenge),
		errors.Is(err, services.ErrNotPending),
		errors.Is(err, services.ErrNotActive),
		errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidTeam),
		errors.Is(err, services.ErrInvalidStake),
		errors.Is(err, services.ErrQuestionBankDry):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// SetupArenaRoutes wires the arena API. Every route requires the gateway
// user context; the sweep runs lazily on the arena view endpoints.
func SetupArenaRoutes(
	app *fiber.App,
	arena *services.ArenaService,
	quiz *services.QuizService,
	sweep *services.SweepService,
	wallet *services.WalletService,
	archive *services.ArchiveService,
) {
	secured := app.Group("/arena", middleware.UserContextMiddleware())

	secured.Post("/matches", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Mode       models.MatchMode `json:"mode"`
			Difficulty string           `json:"difficulty"`
			Stake      int64            `json:"stake"`
			OpponentID string           `json:"opponent_id,omitempty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Difficulty == "" {
			return c.Status(400).JSON(fiber.Map{"error": "difficulty is required"})
		}
		match, err := arena.CreateMatch(userID, req.Mode, req.Difficulty, req.Stake, req.OpponentID)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(201).JSON(fiber.Map{
			"match_id": match.ID,
			"code":     match.Code,
			"status":   match.Status,
		})
	})

	// Arena view: the lazy reconciliation hook. Opening this list is what
	// eventually resolves abandoned matches.
	secured.Get("/matches", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if _, err := sweep.Sweep(); err != nil {
			log.Printf("⚠️ lazy sweep failed: %v", err)
		}
		view, err := arena.MyMatches(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	})

	secured.Get("/matches/:id", func(c *fiber.Ctx) error {
		match, err := arena.GetMatch(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(match)
	})

	secured.Post("/matches/:id/accept", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		status, err := arena.AcceptMatch(c.Params("id"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": status})
	})

	secured.Post("/matches/:id/join", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Team models.TeamTag `json:"team"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		status, err := arena.JoinLobby(c.Params("id"), userID, req.Team)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": status})
	})

	secured.Post("/matches/:id/cancel", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		if err := arena.CancelMatch(c.Params("id"), userID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	secured.Get("/matches/:id/quiz", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		questions, err := quiz.GetQuiz(c.Params("id"), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"match_id":  c.Params("id"),
			"questions": questions,
		})
	})

	secured.Post("/matches/:id/submit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		type Req struct {
			Answers map[string]string `json:"answers"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		result, err := quiz.Grade(c.Params("id"), userID, req.Answers)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/lobby", func(c *fiber.Ctx) error {
		if _, err := sweep.Sweep(); err != nil {
			log.Printf("⚠️ lazy sweep failed: %v", err)
		}
		rooms, err := arena.Lobby()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(rooms)
	})

	secured.Get("/opponents", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		opponents, err := arena.Opponents(userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(opponents)
	})

	secured.Post("/sweep", func(c *fiber.Ctx) error {
		result, err := sweep.Sweep()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(result)
	})

	secured.Get("/wallet/balance", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		points, err := wallet.GetBalance(userID, models.CurrencyPoints)
		if err != nil {
			return fail(c, err)
		}
		trophies, err := wallet.GetBalance(userID, models.CurrencyTrophies)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"player_id": userID,
			"points":    points,
			"trophies":  trophies,
		})
	})

	// 🔒 Admin-only routes
	admin := secured.Group("/admin")
	admin.Post("/history/export", func(c *fiber.Ctx) error {
		if !middleware.IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin role required"})
		}
		sinceStr := c.Query("since")
		since := time.Now().Add(-24 * time.Hour)
		if sinceStr != "" {
			parsed, err := time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid since (use RFC3339)"})
			}
			since = parsed
		}
		url, count, err := archive.ExportHistory(since)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"url": url, "count": count})
	})
}
