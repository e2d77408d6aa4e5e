package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/catalog"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/libmatch"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

// RuleHandler 库规则管理处理器
// 规则增删改后使目录快照失效, 下一次分析会加载新版本规则表
type RuleHandler struct {
	ruleRepo *repository.RuleRepository
	catalog  *catalog.Manager
	logger   *logrus.Logger
}

// NewRuleHandler 创建规则处理器实例
func NewRuleHandler(ruleRepo *repository.RuleRepository, catalogMgr *catalog.Manager, logger *logrus.Logger) *RuleHandler {
	return &RuleHandler{
		ruleRepo: ruleRepo,
		catalog:  catalogMgr,
		logger:   logger,
	}
}

// ListRules 查询规则列表
// GET /api/v1/rules?page=1&limit=50&kind=native&category=crash&status=enabled&search=mmkv
func (h *RuleHandler) ListRules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	rules, total, err := h.ruleRepo.ListRules(c.Request.Context(), page, limit,
		c.Query("kind"), c.Query("category"), c.Query("status"), c.Query("search"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list library rules")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取规则列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetRule 获取单条规则
// GET /api/v1/rules/:id
func (h *RuleHandler) GetRule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则 ID"})
		return
	}

	rule, err := h.ruleRepo.GetRule(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

// ruleRequest 创建/更新规则的请求体
type ruleRequest struct {
	Key           string `json:"key" binding:"required"`
	Kind          string `json:"kind" binding:"required"`
	UUID          string `json:"uuid"`
	Label         string `json:"label" binding:"required"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	CategoryIcon  string `json:"category_icon"`
	Developer     string `json:"developer"`
	Description   string `json:"description"`
	SourceLink    string `json:"source_link"`
	Type          string `json:"type"`
	Status        string `json:"status"`
}

func validKind(kind string) bool {
	switch libmatch.Kind(kind) {
	case libmatch.KindNative, libmatch.KindActivity, libmatch.KindService,
		libmatch.KindProvider, libmatch.KindReceiver, libmatch.KindStatic, libmatch.KindAction:
		return true
	}
	return false
}

// CreateRule 创建规则
// POST /api/v1/rules
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数无效: " + err.Error()})
		return
	}
	if !validKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则分区: " + req.Kind})
		return
	}

	rule := &domain.LibraryRule{
		Key:           req.Key,
		Kind:          req.Kind,
		UUID:          req.UUID,
		Label:         req.Label,
		Category:      req.Category,
		CategoryLabel: req.CategoryLabel,
		CategoryIcon:  req.CategoryIcon,
		Developer:     req.Developer,
		Description:   req.Description,
		SourceLink:    req.SourceLink,
		Type:          req.Type,
		Status:        domain.RuleStatusEnabled,
		Source:        domain.RuleSourceManual,
	}
	if req.Status != "" {
		rule.Status = domain.RuleStatus(req.Status)
	}

	if err := h.ruleRepo.CreateRule(c.Request.Context(), rule); err != nil {
		h.logger.WithError(err).Error("Failed to create library rule")
		c.JSON(http.StatusConflict, gin.H{"error": "创建规则失败: 可能与现有规则冲突"})
		return
	}

	h.catalog.Invalidate()
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule 更新规则
// PUT /api/v1/rules/:id
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则 ID"})
		return
	}

	rule, err := h.ruleRepo.GetRule(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "规则不存在"})
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数无效: " + err.Error()})
		return
	}
	if !validKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则分区: " + req.Kind})
		return
	}

	rule.Key = req.Key
	rule.Kind = req.Kind
	rule.Label = req.Label
	rule.Category = req.Category
	rule.CategoryLabel = req.CategoryLabel
	rule.CategoryIcon = req.CategoryIcon
	rule.Developer = req.Developer
	rule.Description = req.Description
	rule.SourceLink = req.SourceLink
	rule.Type = req.Type
	if req.UUID != "" {
		rule.UUID = req.UUID
	}
	if req.Status != "" {
		rule.Status = domain.RuleStatus(req.Status)
	}

	if err := h.ruleRepo.UpdateRule(c.Request.Context(), rule); err != nil {
		h.logger.WithError(err).WithField("rule_id", id).Error("Failed to update library rule")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新规则失败"})
		return
	}

	h.catalog.Invalidate()
	c.JSON(http.StatusOK, rule)
}

// DeleteRule 删除规则
// DELETE /api/v1/rules/:id
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则 ID"})
		return
	}

	if err := h.ruleRepo.DeleteRule(c.Request.Context(), uint(id)); err != nil {
		h.logger.WithError(err).WithField("rule_id", id).Error("Failed to delete library rule")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除规则失败"})
		return
	}

	h.catalog.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "规则已删除"})
}

// ImportRules 批量导入规则
// POST /api/v1/rules/import
func (h *RuleHandler) ImportRules(c *gin.Context) {
	var reqs []ruleRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数无效: " + err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "规则列表为空"})
		return
	}

	rules := make([]domain.LibraryRule, 0, len(reqs))
	for _, req := range reqs {
		if !validKind(req.Kind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的规则分区: " + req.Kind})
			return
		}
		rules = append(rules, domain.LibraryRule{
			Key:           req.Key,
			Kind:          req.Kind,
			UUID:          req.UUID,
			Label:         req.Label,
			Category:      req.Category,
			CategoryLabel: req.CategoryLabel,
			CategoryIcon:  req.CategoryIcon,
			Developer:     req.Developer,
			Description:   req.Description,
			SourceLink:    req.SourceLink,
			Type:          req.Type,
			Status:        domain.RuleStatusEnabled,
			Source:        domain.RuleSourceImported,
		})
	}

	if err := h.ruleRepo.CreateRules(c.Request.Context(), rules); err != nil {
		h.logger.WithError(err).Error("Failed to import library rules")
		c.JSON(http.StatusConflict, gin.H{"error": "导入规则失败: 可能与现有规则冲突"})
		return
	}

	h.catalog.Invalidate()
	c.JSON(http.StatusOK, gin.H{
		"message":  "规则导入成功",
		"imported": len(rules),
	})
}

// GetRuleStats 按分区统计规则数量
// GET /api/v1/rules/stats
func (h *RuleHandler) GetRuleStats(c *gin.Context) {
	counts, err := h.ruleRepo.CountByKind(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to count rules by kind")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取规则统计失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind_counts":   counts,
		"table_version": h.catalog.Version(),
	})
}
