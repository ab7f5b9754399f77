package dto

// UploadCampaignImageResponse describes a stored campaign image
type UploadCampaignImageResponse struct {
	FileName string `json:"file_name" example:"3f2c9a1e.png"`
	URL      string `json:"url" example:"/media/campaign-images/3f2c9a1e.png"`
	Width    int    `json:"width" example:"600"`
	Height   int    `json:"height" example:"338"`
	Bytes    int    `json:"bytes" example:"48213"`
}

// Media error codes
const (
	ErrorUnsupportedImage = "UNSUPPORTED_IMAGE"
	ErrorImageTooLarge    = "IMAGE_TOO_LARGE"
)
