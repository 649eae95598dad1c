package tags

// Tag names used throughout the pipeline. Only the ones consulted from code
// get constants; the full set lives in DefaultSchema.
const (
	TagLockTagList      = "Script:LockTagList"
	TagTransformEnabled = "ImageTransform:Enabled"
	TagTransformCrop    = "ImageTransform:Crop"
	TagTransformRotate  = "ImageTransform:Rotate"
	TagTransformFlip    = "ImageTransform:Flip"
	TagTransformCompr   = "ImageTransform:Compression"
	TagImageHistory     = "ImageHistory"
)

// DefaultSchema builds the code-defaults layer: every recognized tag with its
// default value or marker, in write order. The schema map doubles as the
// admission list once Script:LockTagList is set.
func DefaultSchema() *Map {
	m := NewMap()
	m.Set(TagLockTagList, Bool(false))
	// image transformations, consumed before the external tool runs
	m.Set(TagTransformEnabled, Bool(false))
	m.Set(TagTransformCrop, List(Int(0), Int(0), Int(4096), Int(2656)))
	m.Set(TagTransformRotate, Int(0))
	m.Set(TagTransformFlip, List(Bool(false), Bool(false)))
	m.Set(TagTransformCompr, List(String("none")))
	// EXIF
	m.Set("DocumentName", Sentinel(Auto))
	m.Set("ImageDescription", String(""))
	m.Set("Make", Sentinel(Mandatory))
	m.Set("Model", Sentinel(Mandatory))
	m.Set("Orientation", String(OrientationNames[1]))
	m.Set("ModifyDate", Sentinel(Auto))
	m.Set("Artist", String(""))
	m.Set("Copyright", Sentinel(Optional))
	m.Set("ExposureTime", Sentinel(Optional))
	m.Set("FNumber", Sentinel(Optional))
	m.Set("ISO", Sentinel(Optional))
	m.Set("DateTimeOriginal", Sentinel(Mandatory))
	m.Set("CreateDate", Sentinel(Auto))
	m.Set("OffsetTime", Sentinel(Auto))
	m.Set("OffsetTimeOriginal", Sentinel(Optional))
	m.Set("OffsetTimeDigitized", Sentinel(Auto))
	m.Set("ShutterSpeedValue", Sentinel(Auto))
	m.Set("ApertureValue", Sentinel(Auto))
	m.Set("EXIF:Flash", Sentinel(Optional))
	m.Set("FocalLength", Sentinel(Optional))
	m.Set("ImageNumber", Sentinel(Optional))
	m.Set(TagImageHistory, String(""))
	m.Set("MakerNotes:All", Sentinel(Delete))
	m.Set("UserComment", String(""))
	m.Set("ColorSpace", Sentinel(Mandatory))
	m.Set("ExifImageWidth", Sentinel(Auto))
	m.Set("ExifImageHeight", Sentinel(Auto))
	m.Set("FileSource", String(FileSourceNames[1]))
	m.Set("ExposureMode", Sentinel(Skip))
	m.Set("WhiteBalance", Sentinel(Skip))
	m.Set("FocalLengthIn35mmFormat", Sentinel(Optional))
	m.Set("OwnerName", Sentinel(Skip))
	m.Set("SerialNumber", Sentinel(Skip))
	m.Set("LensInfo", Sentinel(Optional))
	m.Set("LensMake", Sentinel(Optional))
	m.Set("LensModel", Sentinel(Optional))
	m.Set("LensSerialNumber", Sentinel(Optional))
	m.Set("ImageTitle", String(""))
	m.Set("Photographer", Sentinel(Optional))
	m.Set("ImageEditor", Sentinel(Optional))
	m.Set("ReelName", Sentinel(Optional))
	// tags folded into 0x9213 ImageHistory
	m.Set("ImageHistory:Film", Sentinel(Optional))
	// GPS
	m.Set("GPSLatitudeRef", Sentinel(Auto))
	m.Set("GPSLatitude", Sentinel(Optional))
	m.Set("GPSLongitudeRef", Sentinel(Auto))
	m.Set("GPSLongitude", Sentinel(Optional))
	m.Set("GPSAltitudeRef", Sentinel(Auto))
	m.Set("GPSAltitude", Sentinel(Optional))
	m.Set("GPSProcessingMethod", Sentinel(Auto))
	// service tags, stripped before the external tool runs
	m.Set("Extra:FileID", String(""))
	m.Set("Extra:FilePath", String(""))
	m.Set("Extra:FileDirectory", String(""))
	m.Set("Extra:FileNameBase", String(""))
	m.Set("Extra:FileNameExtension", String(""))
	m.Set("Extra:FilmID", String(""))
	m.Set("Extra:FilmFrameNumber", Int(0))
	m.Set("Extra:StripID", String(""))
	m.Set("Extra:StripFrameNumber", Int(0))
	return m
}

// Locked reports whether the tag list is locked for this mapping.
func Locked(m *Map) bool {
	return m.GetOr(TagLockTagList, Bool(false)).Bool()
}
