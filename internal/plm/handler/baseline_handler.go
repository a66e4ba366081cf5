package handler

import (
	"net/http"
	"net/url"

	"github.com/bitfantasy/nimo-baseline/internal/plm/service"
	"github.com/gin-gonic/gin"
)

type BaselineHandler struct {
	svc *service.BaselineService
}

func NewBaselineHandler(svc *service.BaselineService) *BaselineHandler {
	return &BaselineHandler{svc: svc}
}

// CreateBaseline POST /baselines
func (h *BaselineHandler) CreateBaseline(c *gin.Context) {
	var input service.CreateBaselineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	b, err := h.svc.Create(c.Request.Context(), GetUserID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, b)
}

// ImportBaseline POST /baselines/import (multipart: file, name, project_id, label, description)
func (h *BaselineHandler) ImportBaseline(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		BadRequest(c, "请提供基线名称")
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传Excel文件")
		return
	}
	defer file.Close()

	input := &service.CreateBaselineInput{
		ProjectID:   c.PostForm("project_id"),
		Name:        name,
		Label:       c.PostForm("label"),
		Description: c.PostForm("description"),
	}
	b, err := h.svc.Import(c.Request.Context(), GetUserID(c), input, file)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, b)
}

// DownloadTemplate GET /baselines/template
func (h *BaselineHandler) DownloadTemplate(c *gin.Context) {
	f, err := service.GenerateTemplate()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"Baseline_Import_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write template: "+err.Error())
	}
}

// SnapshotFromBOM POST /projects/:id/boms/:bomId/baselines
func (h *BaselineHandler) SnapshotFromBOM(c *gin.Context) {
	var input service.SnapshotBOMInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	b, err := h.svc.SnapshotFromBOM(c.Request.Context(), GetUserID(c), c.Param("id"), c.Param("bomId"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, b)
}

// ListBaselines GET /baselines?project_id=
func (h *BaselineHandler) ListBaselines(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": list, "total": len(list)})
}

// GetBaseline GET /baselines/:id
func (h *BaselineHandler) GetBaseline(c *gin.Context) {
	root, summary, err := h.svc.GetTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"baseline": summary, "root": root})
}

// FlattenBaseline GET /baselines/:id/flat
func (h *BaselineHandler) FlattenBaseline(c *gin.Context) {
	entries, err := h.svc.Flatten(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"items": entries, "total": len(entries)})
}

// DownloadArchive GET /baselines/:id/archive
func (h *BaselineHandler) DownloadArchive(c *gin.Context) {
	data, b, err := h.svc.DownloadArchive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	filename := url.PathEscape(b.Name) + "_" + b.Checksum + ".json"
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/json", data)
}

// DeleteBaseline DELETE /baselines/:id
func (h *BaselineHandler) DeleteBaseline(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}
