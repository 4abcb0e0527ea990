// controllers/basket_controller.go
package controllers

import (
	"dive_center_rental/app"
	"dive_center_rental/db"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BasketController struct{ *Srv }

func NewBasketController(s *Srv) *BasketController { return &BasketController{Srv: s} }

// GET /equipment-baskets?q=&status=&customerId=&page=&size=
func (bc *BasketController) ListBaskets(c *gin.Context) {
	q := db.BasketQuery{
		Q:          c.Query("q"),
		Status:     c.Query("status"),
		CustomerID: c.Query("customerId"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := bc.Repo.ListBaskets(c.Request.Context(), q)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type createBasketReq struct {
	CustomerID         string  `json:"customerId" binding:"required"`
	CheckoutDate       string  `json:"checkoutDate" binding:"required"`
	ExpectedReturnDate string  `json:"expectedReturnDate" binding:"required"`
	BucketNumber       *string `json:"bucketNumber"`
	Notes              string  `json:"notes"`
}

// POST /equipment-baskets
func (bc *BasketController) CreateBasket(c *gin.Context) {
	var req createBasketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := requireDay("checkoutDate", req.CheckoutDate)
	if err != nil {
		bc.fail(c, err)
		return
	}
	end, err := requireDay("expectedReturnDate", req.ExpectedReturnDate)
	if err != nil {
		bc.fail(c, err)
		return
	}

	b, err := bc.Repo.CreateBasket(c.Request.Context(), db.CreateBasketInput{
		CustomerID:         req.CustomerID,
		CheckoutDate:       start,
		ExpectedReturnDate: end,
		BucketNumber:       req.BucketNumber,
		Notes:              req.Notes,
	})
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /equipment-baskets/:id
func (bc *BasketController) GetBasket(c *gin.Context) {
	b, err := bc.Repo.GetBasket(c.Request.Context(), c.Param("id"))
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type updateBasketReq struct {
	BucketNumber       *string `json:"bucketNumber"`
	ExpectedReturnDate string  `json:"expectedReturnDate"`
	Notes              *string `json:"notes"`
}

// PUT /equipment-baskets/:id
func (bc *BasketController) UpdateBasket(c *gin.Context) {
	var req updateBasketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := parseDay("expectedReturnDate", req.ExpectedReturnDate)
	if err != nil {
		bc.fail(c, err)
		return
	}
	b, err := bc.Repo.UpdateBasket(c.Request.Context(), c.Param("id"), db.UpdateBasketInput{
		BucketNumber:       req.BucketNumber,
		ExpectedReturnDate: end,
		Notes:              req.Notes,
	})
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /equipment-baskets/:id
func (bc *BasketController) DeleteBasket(c *gin.Context) {
	if err := bc.Repo.DeleteBasket(c.Request.Context(), c.Param("id")); err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// PUT /equipment-baskets/:id/checkout
func (bc *BasketController) CheckoutBasket(c *gin.Context) {
	b, err := bc.Repo.CheckoutBasket(c.Request.Context(), c.Param("id"))
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type returnBasketReq struct {
	ActualReturnDate string   `json:"actualReturnDate"`
	LostIDs          []string `json:"lostIds"`
}

// POST /equipment-baskets/:id/return
func (bc *BasketController) ReturnBasket(c *gin.Context) {
	var req returnBasketReq
	// 空 body 视为今天全部归还
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	actual, err := bc.dayOrToday("actualReturnDate", req.ActualReturnDate)
	if err != nil {
		bc.fail(c, err)
		return
	}
	id := c.Param("id")
	summary, err := bc.Repo.BulkReturn(c.Request.Context(), db.BulkReturnInput{
		BasketID:         id,
		LostIDs:          req.LostIDs,
		ActualReturnDate: actual,
		ReturnedBy:       app.StaffID(c),
	})
	if err != nil {
		bc.fail(c, err)
		return
	}
	logSummary(bc.Log, id, summary)
	c.JSON(http.StatusOK, summary)
}

func logSummary(log *zap.Logger, basketID string, s *db.BulkReturnSummary) {
	log.Info("bulk return",
		zap.String("basket", basketID),
		zap.Int("returned", s.ReturnedCount),
		zap.Int("lost", s.LostCount),
		zap.Int("skippedLost", s.SkippedLostCount),
		zap.Int("skippedReturned", s.SkippedReturnedCount),
		zap.Int("failures", len(s.Failures)),
	)
}
