package controllers

import (
	"dive_center_rental/app"
	"dive_center_rental/db"
	"dive_center_rental/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CatalogController struct{ *Srv }

func NewCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// GET /equipment
func (cc *CatalogController) ListTypes(c *gin.Context) {
	ts, err := cc.Repo.ListEquipmentTypes(c.Request.Context())
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ts})
}

// POST /equipment
func (cc *CatalogController) CreateType(c *gin.Context) {
	var in struct {
		Name        string `json:"name" binding:"required"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	t := &models.EquipmentType{Name: in.Name, Category: in.Category, Description: in.Description}
	if err := cc.Repo.CreateEquipmentType(c.Request.Context(), t); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GET /equipment-items?equipmentTypeId=&status=&q=
func (cc *CatalogController) ListItems(c *gin.Context) {
	items, err := cc.Repo.ListItems(c.Request.Context(), db.ItemQuery{
		TypeID: c.Query("equipmentTypeId"),
		Status: c.Query("status"),
		Q:      c.Query("q"),
	})
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// POST /equipment-items
func (cc *CatalogController) CreateItem(c *gin.Context) {
	var in struct {
		EquipmentTypeID string  `json:"equipmentTypeId" binding:"required"`
		SerialNumber    *string `json:"serialNumber"`
		InventoryCode   *string `json:"inventoryCode"`
		Size            string  `json:"size"`
		Brand           string  `json:"brand"`
		ServiceStatus   string  `json:"serviceStatus" binding:"omitempty,oneof=in_service maintenance retired"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	it := &models.EquipmentItem{
		TypeID:        in.EquipmentTypeID,
		SerialNumber:  in.SerialNumber,
		InventoryCode: in.InventoryCode,
		Size:          in.Size,
		Brand:         in.Brand,
		ServiceStatus: models.ServiceStatus(in.ServiceStatus),
	}
	if err := cc.Repo.CreateItem(c.Request.Context(), it); err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// GET /equipment-items/:id
func (cc *CatalogController) GetItem(c *gin.Context) {
	it, err := cc.Repo.FindItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// PUT /equipment-items/:id
// The visible status cannot be set here; it follows the assignments.
func (cc *CatalogController) UpdateItem(c *gin.Context) {
	var in struct {
		Size          *string `json:"size"`
		Brand         *string `json:"brand"`
		ServiceStatus *string `json:"serviceStatus" binding:"omitempty,oneof=in_service maintenance retired"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	upd := db.UpdateItemInput{Size: in.Size, Brand: in.Brand}
	if in.ServiceStatus != nil {
		s := models.ServiceStatus(*in.ServiceStatus)
		upd.ServiceStatus = &s
	}
	it, err := cc.Repo.UpdateItem(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}
