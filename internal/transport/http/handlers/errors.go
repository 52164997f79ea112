package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeError переводит доменную ошибку в HTTP-ответ. Всё неизвестное: 500 без подробностей.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		ve  *service.ValidationError
		pnf *service.ProductNotFoundError
		ise *service.InsufficientStockError
	)

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, dto.NewValidationError("validation failed", fieldErrors(ve)))
	case errors.Is(err, service.ErrQuantityInvalid),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(err.Error(), nil))
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, dto.NewBadRequestError(dto.CodeEmptyCart, "your cart is empty"))

	case errors.As(err, &pnf):
		c.JSON(http.StatusNotFound, dto.BaseError{Code: dto.CodeProductNotFound, Message: pnf.Error()})
	case errors.As(err, &ise):
		c.JSON(http.StatusConflict, dto.BaseError{Code: dto.CodeInsufficientStock, Message: ise.Error()})

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewForbiddenError("you do not have permission to perform this action"))

	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotInCart),
		errors.Is(err, service.ErrSupplierNotFound),
		errors.Is(err, service.ErrWarehouseNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError(err.Error()))

	case errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrProductInUse),
		errors.Is(err, service.ErrSupplierExists),
		errors.Is(err, service.ErrSupplierInUse),
		errors.Is(err, service.ErrWarehouseExists),
		errors.Is(err, service.ErrWarehouseInUse),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrCannotDeleteSelf),
		errors.Is(err, service.ErrPrimaryAdmin),
		errors.Is(err, service.ErrUserHasOrders):
		c.JSON(http.StatusConflict, dto.NewConflictError(err.Error()))

	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.NewInternalError())
	}
}

func fieldErrors(ve *service.ValidationError) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(ve.Fields))
	for f, msg := range ve.Fields {
		out = append(out, dto.FieldError{Field: f, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// bindError: ответ на невалидное тело запроса.
func bindError(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))

	fields := []dto.FieldError{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, dto.FieldError{
				Field:   strings.ToLower(fe.Field()),
				Message: fe.Error(),
				Tag:     fe.Tag(),
			})
		}
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", fields))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid id", []dto.FieldError{{Field: name, Message: "must be a UUID"}}))
		return uuid.Nil, false
	}
	return id, true
}

func queryPage(c *gin.Context) int {
	p, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}
