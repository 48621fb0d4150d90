package gin

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/project"
	"github.com/uniedit/reelforge/internal/domain/sound"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/shared/logger"
	apperrors "github.com/uniedit/reelforge/internal/utils/errors"
)

// handleError maps domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= 500 {
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}

func toAppError(err error) *apperrors.AppError {
	var (
		appErr    *apperrors.AppError
		review    *project.NeedsReviewError
		notReady  *timeline.SceneNotReadyError
		violation *timeline.InvariantViolation
	)

	switch {
	case errors.As(err, &appErr):
		return appErr

	case errors.Is(err, project.ErrProjectNotFound):
		return apperrors.NotFound("project")

	case errors.Is(err, project.ErrSceneNotFound):
		return apperrors.NotFound("scene")

	case errors.Is(err, project.ErrInvalidScript),
		errors.Is(err, project.ErrInvalidBrand),
		errors.Is(err, brand.ErrInvalidConfig),
		errors.Is(err, sound.ErrInvalidConfig),
		errors.Is(err, sound.ErrUnknownScene):
		return apperrors.ValidationError(err.Error())

	case errors.Is(err, project.ErrInvalidOverride):
		e := apperrors.ValidationError(err.Error())
		if errors.Is(err, asset.ErrUnresolvable) {
			e.WithDetails(map[string]any{"reason": asset.Reason(err)})
		}
		return e

	case errors.As(err, &review):
		return apperrors.NewAppError("NEEDS_REVIEW", err.Error(), http.StatusConflict, err).
			WithDetails(map[string]any{"scene_ids": review.SceneIDs})

	case errors.As(err, &notReady):
		return apperrors.NewAppError("SCENE_NOT_READY", err.Error(), http.StatusConflict, err).
			WithDetails(map[string]any{
				"scene_id":  notReady.SceneID,
				"index":     notReady.Index,
				"status":    notReady.Status,
				"not_ready": notReady.NotReady,
			})

	case errors.Is(err, timeline.ErrEssentialAsset):
		return apperrors.NewAppError("ESSENTIAL_ASSET_UNRESOLVABLE", err.Error(), http.StatusUnprocessableEntity, err)

	case errors.Is(err, project.ErrProjectCancelled):
		return apperrors.Conflict("project cancelled")

	case errors.Is(err, project.ErrSceneTerminal),
		errors.Is(err, project.ErrOverrideNotAllowed),
		errors.Is(err, project.ErrCompositionStale):
		return apperrors.Conflict(err.Error())

	case errors.Is(err, project.ErrNotComposed):
		return apperrors.PreconditionFailed("project not composed")

	case errors.Is(err, project.ErrRenderUnavailable):
		return apperrors.ServiceUnavailable("render backend unavailable")

	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("")

	case errors.As(err, &violation):
		return apperrors.Internal("render timeline invalid", err).
			WithDetails(map[string]any{"invariant": violation.Invariant})

	default:
		return apperrors.Internal("internal server error", err)
	}
}
