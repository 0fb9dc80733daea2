// AngelaMos | 2026
// dto.go

package tag

type TagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}
