package controllers

import (
	"dive_center_rental/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type DirectoryController struct{ *Srv }

func NewDirectoryController(s *Srv) *DirectoryController { return &DirectoryController{Srv: s} }

// POST /customers
func (dc *DirectoryController) CreateCustomer(c *gin.Context) {
	var in struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName"`
		Email     string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	cu := &models.Customer{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
	if err := dc.Repo.CreateCustomer(c.Request.Context(), cu); err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cu)
}

// GET /customers/:id
func (dc *DirectoryController) GetCustomer(c *gin.Context) {
	cu, err := dc.Repo.FindCustomerByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cu)
}

// POST /bookings
func (dc *DirectoryController) CreateBooking(c *gin.Context) {
	var in struct {
		CustomerID string `json:"customerId" binding:"required"`
		DiveDate   string `json:"diveDate" binding:"required"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	day, err := requireDay("diveDate", in.DiveDate)
	if err != nil {
		dc.fail(c, err)
		return
	}
	b := &models.Booking{CustomerID: in.CustomerID, DiveDate: day, Notes: in.Notes}
	if err := dc.Repo.CreateBooking(c.Request.Context(), b); err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /bookings/:id
func (dc *DirectoryController) GetBooking(c *gin.Context) {
	b, err := dc.Repo.FindBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		dc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
