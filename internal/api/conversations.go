package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Victor-talka/talka-history/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultImportsLimit = 50

// UploadCSV imports a CSV export for one user
func (h *Handler) UploadCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxFileSize)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.errorResponse(c, http.StatusRequestEntityTooLarge, "File too large", err)
		case errors.Is(err, http.ErrMissingFile) && hasFormValue(c.Request, "file"):
			// A file part with an empty filename is parsed as a plain value.
			h.errorResponse(c, http.StatusBadRequest, "No file selected", err)
		default:
			h.errorResponse(c, http.StatusBadRequest, "No file provided", err)
		}
		return
	}
	if !isCSVFile(file.Filename) {
		h.errorResponse(c, http.StatusBadRequest, "File must be CSV format", nil)
		return
	}

	userID, err := strconv.ParseUint(c.PostForm("user_id"), 10, 32)
	if err != nil || userID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "User ID required", err)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Failed to open file", err)
		return
	}
	defer src.Close()

	result, err := h.importService.ImportCSV(c.Request.Context(), services.ImportRequest{
		UserID:   uint(userID),
		Filename: file.Filename,
		Body:     src,
	})
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Error processing CSV: %v", err), err)
			return
		}
		h.serviceError(c, "Error processing CSV", err)
		return
	}

	h.log.Info("CSV uploaded",
		zap.Uint64("user_id", userID),
		zap.Uint("import_id", result.ImportID),
		zap.String("request_id", c.GetString("request_id")),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("%d conversas processadas com sucesso", len(result.Conversations)),
		"conversations": result.Conversations,
		"skipped_rows":  result.RowsSkipped,
		"import_id":     result.ImportID,
	})
}

// ListUserConversations lists a user's conversations, most recent first
func (h *Handler) ListUserConversations(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	conversations, err := h.conversationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.serviceError(c, "Failed to list conversations", err)
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetConversation returns one conversation without its messages
func (h *Handler) GetConversation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID", nil)
		return
	}

	conversation, err := h.conversationService.GetConversation(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get conversation", err)
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// GetMessages lists a conversation's messages in chronological order
func (h *Handler) GetMessages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID", nil)
		return
	}

	messages, err := h.conversationService.Messages(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to list messages", err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetMedia lists a conversation's media messages, newest first
func (h *Handler) GetMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID", nil)
		return
	}

	media, err := h.conversationService.Media(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to list media", err)
		return
	}

	c.JSON(http.StatusOK, media)
}

// DeleteConversation deletes a conversation and its messages
func (h *Handler) DeleteConversation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID", nil)
		return
	}

	if err := h.conversationService.DeleteConversation(c.Request.Context(), id); err != nil {
		h.serviceError(c, "Failed to delete conversation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Conversation deleted successfully",
	})
}

// ListImports lists a user's import history
func (h *Handler) ListImports(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil || userID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "user_id query parameter is required", err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultImportsLimit)))
	if limit <= 0 || limit > 500 {
		limit = defaultImportsLimit
	}

	imports, err := h.importService.ListImports(c.Request.Context(), uint(userID), limit)
	if err != nil {
		h.serviceError(c, "Failed to list imports", err)
		return
	}

	c.JSON(http.StatusOK, imports)
}

func isCSVFile(filename string) bool {
	return strings.HasSuffix(filename, ".csv")
}

func hasFormValue(r *http.Request, name string) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.Value[name]) > 0
}
