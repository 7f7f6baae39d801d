package handler

import (
	"encoding/json"
	"net/http"

	"doctor-appointment-api/internal/delivery/dto"
	"doctor-appointment-api/internal/usecase"
	"doctor-appointment-api/pkg/response"
	"doctor-appointment-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type CategoryHandler struct {
	categoryUsecase usecase.CategoryUsecase
	validator       *validator.CustomValidator
}

func NewCategoryHandler(categoryUsecase usecase.CategoryUsecase, validator *validator.CustomValidator) *CategoryHandler {
	return &CategoryHandler{
		categoryUsecase: categoryUsecase,
		validator:       validator,
	}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	category, err := h.categoryUsecase.Create(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create category")
		return
	}

	response.Success(w, http.StatusCreated, "Category created successfully", category)
}

func (h *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryUsecase.GetAll(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get categories")
		return
	}

	response.Success(w, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	category, err := h.categoryUsecase.GetByID(r.Context(), categoryID)
	if err != nil {
		response.FromError(w, err, "Failed to get category")
		return
	}

	response.Success(w, http.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	var req dto.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	category, err := h.categoryUsecase.Update(r.Context(), categoryID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update category")
		return
	}

	response.Success(w, http.StatusOK, "Category updated successfully", category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid category ID")
		return
	}

	if err := h.categoryUsecase.Delete(r.Context(), categoryID); err != nil {
		response.FromError(w, err, "Failed to delete category")
		return
	}

	response.Success(w, http.StatusOK, "Category deleted successfully", nil)
}
