package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floragems/floragems-backend/api/middleware"
	"github.com/floragems/floragems-backend/api/responses"
	"github.com/floragems/floragems-backend/api/validators"
	orderssvc "github.com/floragems/floragems-backend/internal/orders"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
	"github.com/floragems/floragems-backend/pkg/types"
)

type orderLinePayload struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	ImageURL  string          `json:"image_url"`
	Size      string          `json:"size" validate:"required,max=32"`
	Qty       int             `json:"qty" validate:"required,min=1"`
}

type placeOrderRequest struct {
	Items   []orderLinePayload    `json:"items" validate:"required,min=1,dive"`
	Address types.ShippingAddress `json:"address" validate:"required"`
	Amount  decimal.Decimal       `json:"amount" validate:"required"`
}

func (p placeOrderRequest) toInput(userID uuid.UUID) orderssvc.PlaceOrderInput {
	items := make([]orderssvc.LineInput, len(p.Items))
	for i, line := range p.Items {
		items[i] = orderssvc.LineInput{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
			Size:      line.Size,
			Qty:       line.Qty,
		}
	}
	return orderssvc.PlaceOrderInput{
		UserID:  userID,
		Items:   items,
		Address: p.Address,
		Amount:  p.Amount,
	}
}

// OrderPlace creates a cash-on-delivery order.
func OrderPlace(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), payload.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderPlaceStripe creates a card order and returns the hosted checkout URL.
func OrderPlaceStripe(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		placed, err := svc.PlaceOrderStripe(r.Context(), payload.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placed)
	}
}

type verifyStripeRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Success bool      `json:"success"`
}

// OrderVerifyStripe resolves a pending card payment after the redirect:
// success marks the order paid, failure restocks and deletes it.
func OrderVerifyStripe(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyStripeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paid, err := svc.VerifyStripe(r.Context(), orderssvc.VerifyStripeInput{
			OrderID: payload.OrderID,
			UserID:  userID,
			Success: payload.Success,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"paid": paid})
	}
}

type cancelOrderRequest struct {
	Reason      string `json:"reason" validate:"required,max=500"`
	Disposition string `json:"disposition"`
}

// OrderCancel cancels an order. Customers may only cancel their own
// early-stage orders; admins also choose the stock disposition.
func OrderCancel(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := actorRole(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disposition := enums.StockDispositionRestore
		if role == enums.RoleAdmin && payload.Disposition != "" {
			disposition, err = enums.ParseStockDisposition(payload.Disposition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock disposition"))
				return
			}
		}

		result, err := svc.Cancel(r.Context(), orderssvc.CancelInput{
			OrderID:     orderID,
			ActorUserID: userID,
			ActorRole:   role,
			Reason:      payload.Reason,
			Disposition: disposition,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderRefundStatus re-queries the payment provider for the latest refund state.
func OrderRefundStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.RefundStatus(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if snapshot == nil {
			responses.WriteSuccess(w, map[string]any{"refund": nil})
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderUpdateStatus advances an order's fulfillment status.
func OrderUpdateStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), orderID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "status updated"})
	}
}

// OrderList pages through all orders for the admin panel.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderUserList returns the caller's own orders, newest first.
func OrderUserList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.UserOrders(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrderRemove hard-deletes an order record.
func OrderRemove(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "order removed"})
	}
}

func actorRole(r *http.Request) (enums.Role, error) {
	raw := middleware.RoleFromContext(r.Context())
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	role, err := enums.ParseRole(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role in token")
	}
	return role, nil
}
