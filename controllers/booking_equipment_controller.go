// controllers/booking_equipment_controller.go
package controllers

import (
	"dive_center_rental/app"
	"dive_center_rental/db"
	"dive_center_rental/models"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type BookingEquipmentController struct{ *Srv }

func NewBookingEquipmentController(s *Srv) *BookingEquipmentController {
	return &BookingEquipmentController{Srv: s}
}

// GET /booking-equipment?basketId=&bookingId=&equipmentItemId=&status=
func (ec *BookingEquipmentController) ListAssignments(c *gin.Context) {
	as, err := ec.Repo.ListAssignments(c.Request.Context(), db.AssignmentQuery{
		BasketID:  c.Query("basketId"),
		BookingID: c.Query("bookingId"),
		ItemID:    c.Query("equipmentItemId"),
		Status:    c.Query("status"),
	})
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": as})
}

type addAssignmentReq struct {
	BasketID        string              `json:"basketId"`
	BookingID       string              `json:"bookingId"`
	Source          string              `json:"source" binding:"required"`
	EquipmentItemID string              `json:"equipmentItemId"`
	EquipmentTypeID string              `json:"equipmentTypeId"`
	Quantity        int                 `json:"quantity" binding:"omitempty,min=1,max=50"`
	CustomerGear    models.CustomerGear `json:"customerGear"`
	CheckoutDate    string              `json:"checkoutDate"`
	ReturnDate      string              `json:"returnDate"`
	Notes           string              `json:"notes"`
}

// POST /booking-equipment
func (ec *BookingEquipmentController) AddAssignment(c *gin.Context) {
	var req addAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parseDay("checkoutDate", req.CheckoutDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	end, err := parseDay("returnDate", req.ReturnDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	source := models.EquipmentSource(req.Source)
	if !source.Valid() {
		badRequest(c, "source must be center or customer_own")
		return
	}
	if source == models.SourceCenter && req.EquipmentItemID == "" && req.EquipmentTypeID == "" {
		badRequest(c, "equipmentItemId or equipmentTypeId is required")
		return
	}
	if req.EquipmentItemID != "" && req.Quantity > 1 {
		badRequest(c, "quantity cannot be combined with equipmentItemId")
		return
	}

	created, err := ec.Repo.AddAssignment(c.Request.Context(), db.AddAssignmentInput{
		BasketID:  req.BasketID,
		BookingID: req.BookingID,
		Selection: db.ItemSelection{
			Source:          source,
			ItemID:          req.EquipmentItemID,
			EquipmentTypeID: req.EquipmentTypeID,
			Quantity:        req.Quantity,
			Gear:            req.CustomerGear,
		},
		CheckoutDate: start,
		ReturnDate:   end,
		Notes:        req.Notes,
	})
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"items": created})
}

// GET /booking-equipment/:id
func (ec *BookingEquipmentController) GetAssignment(c *gin.Context) {
	a, err := ec.Repo.FindAssignmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type updateAssignmentReq struct {
	CheckoutDate string  `json:"checkoutDate"`
	ReturnDate   string  `json:"returnDate"`
	Notes        *string `json:"notes"`
}

// PUT /booking-equipment/:id
func (ec *BookingEquipmentController) UpdateAssignment(c *gin.Context) {
	var req updateAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parseDay("checkoutDate", req.CheckoutDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	end, err := parseDay("returnDate", req.ReturnDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	a, err := ec.Repo.UpdateAssignment(c.Request.Context(), c.Param("id"), db.UpdateAssignmentInput{
		CheckoutDate: start,
		ReturnDate:   end,
		Notes:        req.Notes,
	})
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /booking-equipment/:id
func (ec *BookingEquipmentController) DeleteAssignment(c *gin.Context) {
	if err := ec.Repo.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

type checkAvailabilityReq struct {
	EquipmentTypeID string `json:"equipmentTypeId" binding:"required"`
	Quantity        int    `json:"quantity" binding:"omitempty,min=1"`
	StartDate       string `json:"startDate" binding:"required"`
	EndDate         string `json:"endDate" binding:"required"`
}

// POST /booking-equipment/check-availability
func (ec *BookingEquipmentController) CheckAvailability(c *gin.Context) {
	var req checkAvailabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := requireDay("startDate", req.StartDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	end, err := requireDay("endDate", req.EndDate)
	if err != nil {
		ec.fail(c, err)
		return
	}

	items, err := ec.Repo.CheckAvailability(c.Request.Context(), db.AvailabilityQuery{
		TypeID:   req.EquipmentTypeID,
		Quantity: req.Quantity,
		Start:    start,
		End:      end,
	})
	if errors.Is(err, models.ErrInsufficientAvailability) {
		// 409 也带上可用的部分，前端可以改数量
		c.JSON(http.StatusConflict, app.H{
			"error":     "insufficient_availability",
			"message":   err.Error(),
			"available": items,
			"count":     len(items),
		})
		return
	}
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"available": items, "count": len(items)})
}

// PUT /booking-equipment/:id/checkout
func (ec *BookingEquipmentController) CheckoutAssignment(c *gin.Context) {
	a, err := ec.Repo.CheckoutAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type returnAssignmentReq struct {
	ActualReturnDate string `json:"actualReturnDate" binding:"required"`
}

// PUT /booking-equipment/:id/return
func (ec *BookingEquipmentController) ReturnAssignment(c *gin.Context) {
	var req returnAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	actual, err := requireDay("actualReturnDate", req.ActualReturnDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	a, err := ec.Repo.ReturnAssignment(c.Request.Context(), c.Param("id"), actual, app.StaffID(c))
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type markLostReq struct {
	ReportedDate string `json:"reportedDate"`
}

// PUT /booking-equipment/:id/lost
func (ec *BookingEquipmentController) MarkLost(c *gin.Context) {
	var req markLostReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	reported, err := ec.dayOrToday("reportedDate", req.ReportedDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	a, err := ec.Repo.MarkAssignmentLost(c.Request.Context(), c.Param("id"), reported, app.StaffID(c))
	if err != nil {
		ec.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type bulkReturnReq struct {
	BasketID         string   `json:"basketId"`
	AssignmentIDs    []string `json:"assignmentIds"`
	LostIDs          []string `json:"lostIds"`
	ActualReturnDate string   `json:"actualReturnDate" binding:"required"`
}

// POST /booking-equipment/bulk-return
func (ec *BookingEquipmentController) BulkReturn(c *gin.Context) {
	var req bulkReturnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	actual, err := requireDay("actualReturnDate", req.ActualReturnDate)
	if err != nil {
		ec.fail(c, err)
		return
	}
	summary, err := ec.Repo.BulkReturn(c.Request.Context(), db.BulkReturnInput{
		BasketID:         req.BasketID,
		AssignmentIDs:    req.AssignmentIDs,
		LostIDs:          req.LostIDs,
		ActualReturnDate: actual,
		ReturnedBy:       app.StaffID(c),
	})
	if err != nil {
		ec.fail(c, err)
		return
	}
	logSummary(ec.Log, req.BasketID, summary)
	c.JSON(http.StatusOK, summary)
}
