package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/service"
	"github.com/gin-gonic/gin"
)

type CompareHandler struct {
	svc *service.CompareService
}

func NewCompareHandler(svc *service.CompareService) *CompareHandler {
	return &CompareHandler{svc: svc}
}

// Compare GET /compare?left=&right=&change=&depth=&focus=&only_fields=&sort=&visible=&chunk=&epoch=&more=
func (h *CompareHandler) Compare(c *gin.Context) {
	q, err := parseCompareQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	view, err := h.svc.View(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}

// Navigate GET /compare/navigate?current=&dir=next|prev
func (h *CompareHandler) Navigate(c *gin.Context) {
	q, err := parseCompareQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	nav, err := h.svc.Navigate(c.Request.Context(), q, c.Query("current"), c.DefaultQuery("dir", "next"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, nav)
}

// Export GET /compare/export?format=xlsx|csv&encoding=utf-8|gbk
func (h *CompareHandler) Export(c *gin.Context) {
	q, err := parseCompareQuery(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	data, contentType, filename, err := h.svc.Export(c.Request.Context(), q, c.Query("format"), c.Query("encoding"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+url.PathEscape(filename)+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Data(http.StatusOK, contentType, data)
}

func parseCompareQuery(c *gin.Context) (*service.CompareQuery, error) {
	q := &service.CompareQuery{
		LeftID:  c.Query("left"),
		RightID: c.Query("right"),
		Sort:    bomdiff.SortMode(c.DefaultQuery("sort", string(bomdiff.SortByName))),
		Filter:  bomdiff.DefaultFilter(),
	}
	if q.LeftID == "" || q.RightID == "" {
		return nil, fmt.Errorf("请提供left和right参数")
	}
	if q.Sort != bomdiff.SortByName && q.Sort != bomdiff.SortByTraversal {
		return nil, fmt.Errorf("invalid sort %q", q.Sort)
	}

	change, err := bomdiff.ParseChangeFilter(c.Query("change"))
	if err != nil {
		return nil, err
	}
	q.Filter.Change = change

	depth, err := bomdiff.ParseDepth(c.Query("depth"))
	if err != nil {
		return nil, err
	}
	q.Filter.MaxDepth = depth
	q.Filter.FocusID = c.Query("focus")

	if q.Filter.OnlyFieldChanges, err = queryBool(c, "only_fields"); err != nil {
		return nil, err
	}
	if q.More, err = queryBool(c, "more"); err != nil {
		return nil, err
	}

	if q.Window.Visible, err = queryInt(c, "visible"); err != nil {
		return nil, err
	}
	if q.Window.Chunk, err = queryInt(c, "chunk"); err != nil {
		return nil, err
	}
	if s := c.Query("epoch"); s != "" {
		if q.Window.Epoch, err = strconv.ParseUint(s, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid epoch %q", s)
		}
	}
	return q, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}
