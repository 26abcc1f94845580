package validation

// HTTP body limits
const (
	// MaxBodySize caps JSON request bodies (64 KB).
	MaxBodySize = 64 * 1024

	// MaxPhotoSize caps a single uploaded photo (10 MB).
	MaxPhotoSize = 10 << 20

	// MaxMultipartBody caps the whole multipart create request: the photo plus form fields.
	MaxMultipartBody = MaxPhotoSize + MaxBodySize
)

// String length limits
const (
	MaxEmailLength       = 255
	MaxNameLength        = 255
	MaxPhoneLength       = 32
	MaxDescriptionLength = 2000
	MaxLocationLength    = 500
	MaxStatusLength      = 32
	MaxFileNameLength    = 200

	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)
