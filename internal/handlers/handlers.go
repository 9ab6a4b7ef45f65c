package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/agriml-api/internal/features"
	"github.com/Brownie44l1/agriml-api/internal/imaging"
	"github.com/Brownie44l1/agriml-api/internal/model"
	"github.com/Brownie44l1/agriml-api/internal/observability"
)

const maxUploadBytes = 10 << 20

type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

type RemedyAdvisor interface {
	Remedy(ctx context.Context, disease string) (string, error)
}

// Deps are the handles built at startup. Remedy may be nil, in which case
// disease responses carry no remedy.
type Deps struct {
	Tables     *features.Tables
	Quality    *model.Classifier
	Disease    *model.Classifier
	Crop       *model.Classifier
	MinPrice   *model.Regressor
	MaxPrice   *model.Regressor
	ModalPrice *model.Regressor
	Chat       Chatter
	Remedy     RemedyAdvisor
	Metrics    *observability.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

type Handler struct {
	deps      Deps
	startTime time.Time
}

func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{deps: d, startTime: d.Now()}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	r.POST("/api/grade_crop", h.GradeCrop)
	r.POST("/api/detect_disease", h.DetectDisease)
	r.POST("/api/recommend_crop", h.RecommendCrop)
	r.POST("/api/predict_mandi_price", h.PredictMandiPrice)
	r.POST("/chat", h.Chat)
}

func (h *Handler) models() []*model.Handle {
	return []*model.Handle{
		h.deps.Quality.Handle(), h.deps.Disease.Handle(), h.deps.Crop.Handle(),
		h.deps.MinPrice.Handle(), h.deps.MaxPrice.Handle(), h.deps.ModalPrice.Handle(),
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Readyz reports each model's load state. The service stays up with some
// models failed, so it answers 200 with status "degraded" in that case.
func (h *Handler) Readyz(c *gin.Context) {
	status := "ready"
	checks := make(map[string]string)
	for _, m := range h.models() {
		checks[m.Name()] = m.State().String()
		if m.State() != model.StateReady {
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "models": checks})
}

// requireReady fails fast before any request work if a model is not Ready.
func requireReady(handles ...*model.Handle) error {
	for _, m := range handles {
		if m.State() != model.StateReady {
			return fmt.Errorf("%s is %s: %w", m.Name(), m.State(), model.ErrModelUnavailable)
		}
	}
	return nil
}

func (h *Handler) observe(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = strings.ReplaceAll(strings.ToLower(http.StatusText(statusFor(err))), " ", "_")
	}
	h.deps.Metrics.ObservePrediction(name, outcome)
}

// imageInput reads the "file" upload and preprocesses it for m.
func (h *Handler) imageInput(c *gin.Context, m *model.Handle) ([]float32, error) {
	meta, err := m.Metadata()
	if err != nil {
		return nil, err
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: no image file provided, use 'file' as the form field name", errBadRequest)
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	defer file.Close()

	img, format, err := imaging.Decode(file)
	if err != nil {
		return nil, err
	}
	h.deps.Logger.Debug("image received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("format", format),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()),
	)

	layout, err := imaging.ParseLayout(meta.Layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return imaging.Preprocess(img, imaging.Options{
		Size:   meta.ImageSize,
		Layout: layout,
		Scale:  meta.PixelScale,
	})
}

type GradeResponse struct {
	Grade            string            `json:"grade"`
	Confidence       float64           `json:"confidence"`
	AllProbabilities map[string]string `json:"all_probabilities"`
}

func (h *Handler) GradeCrop(c *gin.Context) {
	res, err := h.classifyImage(c, h.deps.Quality)
	if err != nil {
		h.fail(c, "crop grading failed", err)
		return
	}

	c.JSON(http.StatusOK, GradeResponse{
		Grade:            QualityGrades[res.Index],
		Confidence:       res.Confidence,
		AllProbabilities: res.ProbabilityMap(QualityProbabilityKeys()),
	})
}

type DiseaseResponse struct {
	DiseaseName      string            `json:"disease_name"`
	Status           string            `json:"status"`
	Confidence       float64           `json:"confidence"`
	AllProbabilities map[string]string `json:"all_probabilities"`
	Remedy           *string           `json:"remedy"`
}

func (h *Handler) DetectDisease(c *gin.Context) {
	res, err := h.classifyImage(c, h.deps.Disease)
	if err != nil {
		h.fail(c, "disease detection failed", err)
		return
	}

	resp := DiseaseResponse{
		DiseaseName:      res.Label,
		Status:           StatusDiseased,
		Confidence:       res.Confidence,
		AllProbabilities: res.ProbabilityMap(h.deps.Disease.Labels()),
	}
	if strings.Contains(strings.ToLower(res.Label), "healthy") {
		resp.Status = StatusHealthy
	}

	if resp.Status == StatusDiseased && h.deps.Remedy != nil {
		remedy, err := h.deps.Remedy.Remedy(c.Request.Context(), res.Label)
		if err != nil {
			h.fail(c, "remedy lookup failed", err)
			return
		}
		resp.Remedy = &remedy
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) classifyImage(c *gin.Context, clf *model.Classifier) (*model.Classification, error) {
	if err := requireReady(clf.Handle()); err != nil {
		h.observe(clf.Handle().Name(), err)
		return nil, err
	}
	input, err := h.imageInput(c, clf.Handle())
	if err != nil {
		return nil, err
	}
	res, err := clf.Predict(c.Request.Context(), input)
	h.observe(clf.Handle().Name(), err)
	return res, err
}

type CropRequest struct {
	SoilType    string   `json:"Soil_Type" binding:"required"`
	Month       int      `json:"Month" binding:"required"`
	SoilPH      *float64 `json:"Soil_pH"`
	Temperature *float64 `json:"Temperature"`
	Humidity    *float64 `json:"Humidity"`
	N           *float64 `json:"N"`
	P           *float64 `json:"P"`
	K           *float64 `json:"K"`
	SoilQuality *float64 `json:"Soil_Quality"`
}

type CropResponse struct {
	RecommendedCrop  string            `json:"recommended_crop"`
	Confidence       float64           `json:"confidence"`
	AllProbabilities map[string]string `json:"all_probabilities"`
}

func (h *Handler) RecommendCrop(c *gin.Context) {
	var req CropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "invalid request", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	resp, err := h.recommendCrop(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "crop recommendation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) recommendCrop(ctx context.Context, req CropRequest) (*CropResponse, error) {
	if err := requireReady(h.deps.Crop.Handle()); err != nil {
		return nil, err
	}

	record, err := h.deps.Tables.CropRecord(features.CropInput{
		SoilType: strings.TrimSpace(req.SoilType),
		Month:    req.Month,
		Values: map[string]*float64{
			features.FieldSoilPH:      req.SoilPH,
			features.FieldTemperature: req.Temperature,
			features.FieldHumidity:    req.Humidity,
			features.FieldN:           req.N,
			features.FieldP:           req.P,
			features.FieldK:           req.K,
			features.FieldSoilQuality: req.SoilQuality,
		},
	})
	if err != nil {
		return nil, err
	}
	vec, err := features.CropRecommendationSchema.Assemble(record)
	if err != nil {
		return nil, err
	}
	input, err := vec.Float32(h.deps.Tables.Vocabularies)
	if err != nil {
		return nil, err
	}

	res, err := h.deps.Crop.Predict(ctx, input)
	h.observe(h.deps.Crop.Handle().Name(), err)
	if err != nil {
		return nil, err
	}

	crops, err := h.deps.Tables.Vocabularies.Get(features.VocabCropType)
	if err != nil {
		return nil, err
	}
	crop, err := crops.Decode(res.Index)
	if err != nil {
		return nil, err
	}

	return &CropResponse{
		RecommendedCrop:  crop,
		Confidence:       res.Confidence,
		AllProbabilities: res.ProbabilityMap(crops.Categories()),
	}, nil
}

type MandiRequest struct {
	State     string `json:"state" binding:"required"`
	District  string `json:"district" binding:"required"`
	Market    string `json:"market" binding:"required"`
	Commodity string `json:"commodity" binding:"required"`
	Variety   string `json:"variety"`
	Grade     string `json:"grade"`
	Date      string `json:"date"`
}

type MandiResponse struct {
	State               string  `json:"state"`
	District            string  `json:"district"`
	Market              string  `json:"market"`
	Commodity           string  `json:"commodity"`
	Variety             string  `json:"variety"`
	Grade               string  `json:"grade"`
	Date                string  `json:"date"`
	PredictedMinPrice   float64 `json:"predicted_min_price"`
	PredictedMaxPrice   float64 `json:"predicted_max_price"`
	PredictedModalPrice float64 `json:"predicted_modal_price"`
}

func (h *Handler) PredictMandiPrice(c *gin.Context) {
	var req MandiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "invalid request", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	resp, err := h.predictMandiPrice(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "price prediction failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) predictMandiPrice(ctx context.Context, req MandiRequest) (*MandiResponse, error) {
	regressors := []*model.Regressor{h.deps.MinPrice, h.deps.MaxPrice, h.deps.ModalPrice}
	if err := requireReady(h.deps.MinPrice.Handle(), h.deps.MaxPrice.Handle(), h.deps.ModalPrice.Handle()); err != nil {
		return nil, err
	}

	mf, err := h.deps.Tables.MandiRecord(features.MandiInput{
		State:     req.State,
		District:  req.District,
		Market:    req.Market,
		Commodity: req.Commodity,
		Variety:   req.Variety,
		Grade:     req.Grade,
		Date:      req.Date,
	}, h.deps.Now)
	if err != nil {
		return nil, err
	}
	vec, err := features.MandiPriceSchema.Assemble(mf.Record)
	if err != nil {
		return nil, err
	}
	input, err := vec.Float32(h.deps.Tables.Vocabularies)
	if err != nil {
		return nil, err
	}

	prices := make([]float64, len(regressors))
	for i, r := range regressors {
		prices[i], err = r.Predict(ctx, input)
		h.observe(r.Handle().Name(), err)
		if err != nil {
			return nil, err
		}
	}

	return &MandiResponse{
		State:               req.State,
		District:            req.District,
		Market:              req.Market,
		Commodity:           req.Commodity,
		Variety:             mf.Variety,
		Grade:               mf.Grade,
		Date:                mf.Date.Format(features.DateLayout),
		PredictedMinPrice:   prices[0],
		PredictedMaxPrice:   prices[1],
		PredictedModalPrice: prices[2],
	}, nil
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "invalid request", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	reply, err := h.deps.Chat.Chat(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, "chat failed", err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
