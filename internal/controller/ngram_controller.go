package controller

import (
	"errors"
	"net/http"
	"strconv"

	model "skipgram-go/internal/model/ngram"
	"skipgram-go/internal/service"
	"skipgram-go/internal/service/ngram"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NGramController struct {
	ngramService *service.NGramService
	logger       *zap.Logger
}

func NewNGramController(ngramService *service.NGramService, logger *zap.Logger) *NGramController {
	return &NGramController{
		ngramService: ngramService,
		logger:       logger,
	}
}

type AddFileRequest struct {
	Path     string `json:"path" binding:"required"`
	Content  string `json:"content"`
	Language string `json:"language"`
	// Tokens bypasses the tokenizer when set
	Tokens []string `json:"tokens"`
	// Sequences adds several independent token sequences under Path
	Sequences [][]string `json:"sequences"`
}

type ProcessDirectoryRequest struct {
	Path     string `json:"path" binding:"required"`
	Language string `json:"language"`
}

type NGramsRequest struct {
	Orders []int    `json:"orders"`
	Skips  []int    `json:"skips"`
	Prefix []string `json:"prefix"`
	Limit  int      `json:"limit"`
}

type NGramsResponse struct {
	Corpus  string                `json:"corpus"`
	Orders  string                `json:"orders"`
	Skips   string                `json:"skips"`
	Entries []model.Entry[string] `json:"entries"`
}

type CountResponse struct {
	Tokens   []string `json:"tokens"`
	Skip     int      `json:"skip"`
	Count    int64    `json:"count"`
	Contains bool     `json:"contains"`
}

// selectionOf maps an empty list to every stratum
func selectionOf(values []int) ngram.Selection {
	switch len(values) {
	case 0:
		return ngram.All()
	case 1:
		return ngram.Only(values[0])
	default:
		return ngram.Set(values...)
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrCorpusNotFound), errors.Is(err, service.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCorpusExists):
		return http.StatusConflict
	case errors.Is(err, ngram.ErrInvalidArgument), errors.Is(err, service.ErrUnknownTokenizer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (nc *NGramController) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		nc.logger.Error(msg, zap.String("corpus", c.Param("name")), zap.Error(err))
	} else {
		nc.logger.Debug(msg, zap.String("corpus", c.Param("name")), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

func (nc *NGramController) badRequest(c *gin.Context, err error) {
	nc.logger.Error("Invalid request payload", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request payload",
		"details": err.Error(),
	})
}

func (nc *NGramController) ListCorpora(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"corpora": nc.ngramService.ListCorpora()})
}

func (nc *NGramController) CreateCorpus(c *gin.Context) {
	name := c.Param("name")
	cm, err := nc.ngramService.CreateCorpus(name)
	if err != nil {
		nc.fail(c, "Failed to create corpus", err)
		return
	}
	maxOrder, maxSkip := cm.Bounds()
	c.JSON(http.StatusCreated, gin.H{
		"corpus":    name,
		"max_order": maxOrder,
		"max_skip":  maxSkip,
	})
}

func (nc *NGramController) AddFile(c *gin.Context) {
	var request AddFileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		nc.badRequest(c, err)
		return
	}

	name := c.Param("name")
	cm, err := nc.ngramService.GetOrCreateCorpus(name)
	if err != nil {
		nc.fail(c, "Failed to open corpus", err)
		return
	}

	language := request.Language
	if language == "" {
		language = nc.ngramService.Registry().DetectLanguage(request.Path)
	}

	nc.logger.Info("Adding file",
		zap.String("corpus", name),
		zap.String("path", request.Path),
		zap.String("language", language))

	switch {
	case len(request.Sequences) > 0:
		err = cm.AddSequences(c.Request.Context(), request.Path, request.Sequences, language)
	case len(request.Tokens) > 0:
		err = cm.AddTokens(request.Path, request.Tokens, language)
	default:
		err = cm.AddFile(c.Request.Context(), request.Path, []byte(request.Content), language)
	}
	if err != nil {
		nc.fail(c, "Failed to add file", err)
		return
	}

	c.JSON(http.StatusCreated, cm.GetStats())
}

func (nc *NGramController) ListFiles(c *gin.Context) {
	cm, err := nc.ngramService.GetCorpusManager(c.Param("name"))
	if err != nil {
		nc.fail(c, "Failed to list files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": cm.ListFiles()})
}

func (nc *NGramController) RemoveFile(c *gin.Context) {
	cm, err := nc.ngramService.GetCorpusManager(c.Param("name"))
	if err != nil {
		nc.fail(c, "Failed to remove file", err)
		return
	}
	if err := cm.RemoveFile(c.Query("path")); err != nil {
		nc.fail(c, "Failed to remove file", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (nc *NGramController) ProcessDirectory(c *gin.Context) {
	var request ProcessDirectoryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		nc.badRequest(c, err)
		return
	}

	result, err := nc.ngramService.ProcessDirectory(c.Request.Context(), c.Param("name"), request.Path, request.Language)
	if err != nil {
		nc.fail(c, "Failed to process directory", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Count answers GET /corpora/:name/count?tokens=a&tokens=b&skip=0, or
// ?text=...&language=... to tokenize the query first
func (nc *NGramController) Count(c *gin.Context) {
	cm, err := nc.ngramService.GetCorpusManager(c.Param("name"))
	if err != nil {
		nc.fail(c, "Failed to count", err)
		return
	}

	skip, err := intQuery(c, "skip", 0)
	if err != nil {
		nc.badRequest(c, err)
		return
	}

	tokens, err := cm.QueryTokens(c.Request.Context(), c.QueryArray("tokens"), c.Query("text"), c.Query("language"))
	if err != nil {
		nc.fail(c, "Failed to tokenize query", err)
		return
	}
	if len(tokens) == 0 {
		nc.badRequest(c, errors.New("query has no tokens"))
		return
	}

	count, err := cm.Count(tokens, skip)
	if err != nil {
		nc.fail(c, "Failed to count", err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{
		Tokens:   tokens,
		Skip:     skip,
		Count:    count,
		Contains: cm.Contains(tokens),
	})
}

func (nc *NGramController) NGrams(c *gin.Context) {
	var request NGramsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		nc.badRequest(c, err)
		return
	}

	name := c.Param("name")
	cm, err := nc.ngramService.GetCorpusManager(name)
	if err != nil {
		nc.fail(c, "Failed to list n-grams", err)
		return
	}

	orders, skips := selectionOf(request.Orders), selectionOf(request.Skips)
	entries, err := cm.NgramsWithPrefix(orders, skips, request.Prefix, request.Limit)
	if err != nil {
		nc.fail(c, "Failed to list n-grams", err)
		return
	}
	if entries == nil {
		entries = []model.Entry[string]{}
	}
	c.JSON(http.StatusOK, NGramsResponse{
		Corpus:  name,
		Orders:  orders.String(),
		Skips:   skips.String(),
		Entries: entries,
	})
}

// Top answers GET /corpora/:name/top?order=2&skip=0&k=10
func (nc *NGramController) Top(c *gin.Context) {
	cm, err := nc.ngramService.GetCorpusManager(c.Param("name"))
	if err != nil {
		nc.fail(c, "Failed to rank n-grams", err)
		return
	}

	order, err := intQuery(c, "order", 1)
	if err != nil {
		nc.badRequest(c, err)
		return
	}
	skip, err := intQuery(c, "skip", 0)
	if err != nil {
		nc.badRequest(c, err)
		return
	}
	k, err := intQuery(c, "k", 10)
	if err != nil {
		nc.badRequest(c, err)
		return
	}

	entries, err := cm.TopNGrams(order, skip, k)
	if err != nil {
		nc.fail(c, "Failed to rank n-grams", err)
		return
	}
	if entries == nil {
		entries = []model.Entry[string]{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (nc *NGramController) Stats(c *gin.Context) {
	cm, err := nc.ngramService.GetCorpusManager(c.Param("name"))
	if err != nil {
		nc.fail(c, "Failed to get stats", err)
		return
	}
	c.JSON(http.StatusOK, cm.GetStats())
}
