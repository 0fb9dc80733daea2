// AngelaMos | 2026
// dto.go

package comment

import (
	"time"
)

type CreateCommentRequest struct {
	PostID string `json:"post_id" validate:"required,uuid"`
	Text   string `json:"text"    validate:"required,min=1,max=5000"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=5000"`
}

type ReportCommentRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

type ReportResponse struct {
	ReportedBy string    `json:"reported_by"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}

type CommentResponse struct {
	ID          string          `json:"id"`
	PostID      string          `json:"post_id"`
	AuthorEmail string          `json:"author_email"`
	AuthorName  string          `json:"author_name"`
	AuthorImage string          `json:"author_image"`
	Text        string          `json:"text"`
	Report      *ReportResponse `json:"report,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToCommentResponse(c *Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		PostID:      c.PostID,
		AuthorEmail: c.AuthorEmail,
		AuthorName:  c.AuthorName,
		AuthorImage: c.AuthorImage,
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToReportedCommentResponse includes the report, which only moderators see.
func ToReportedCommentResponse(c *Comment) CommentResponse {
	resp := ToCommentResponse(c)

	if c.Reported() {
		report := &ReportResponse{ReportedBy: *c.ReportedBy}
		if c.ReportReason != nil {
			report.Reason = *c.ReportReason
		}
		if c.ReportedAt != nil {
			report.ReportedAt = *c.ReportedAt
		}
		resp.Report = report
	}

	return resp
}

func ToCommentResponseList(comments []Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, ToCommentResponse(&comments[i]))
	}
	return out
}

func ToReportedCommentResponseList(comments []Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, ToReportedCommentResponse(&comments[i]))
	}
	return out
}
