package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// AWS Signature Version 4 for PA-API v5. The canonical request layout and
// the four-step key derivation must match the server byte for byte; any
// deviation is an authentication failure, never a partial match.

const (
	algorithm = "AWS4-HMAC-SHA256"
	service   = "ProductAdvertisingAPI"

	contentEncoding = "amz-1.0"
	contentType     = "application/json; charset=utf-8"
	signedHeaders   = "content-encoding;content-type;host;x-amz-date;x-amz-target"
)

// SignInput carries everything that goes into a signature. AmzDate is the
// ISO-basic datetime (20060102T150405Z) and DateStamp its date-only prefix.
type SignInput struct {
	Method    string
	Path      string
	Host      string
	Target    string
	Region    string
	AmzDate   string
	DateStamp string
	Payload   []byte
}

// canonicalRequest joins method, path, empty query string, the ordered
// lower-cased header block, the signed-header list and the payload hash.
func canonicalRequest(in SignInput) string {
	canonicalHeaders := "content-encoding:" + contentEncoding + "\n" +
		"content-type:" + contentType + "\n" +
		"host:" + in.Host + "\n" +
		"x-amz-date:" + in.AmzDate + "\n" +
		"x-amz-target:" + in.Target + "\n"
	return in.Method + "\n" +
		in.Path + "\n" +
		"\n" + // canonical query string is always empty for PA-API POSTs
		canonicalHeaders + "\n" +
		signedHeaders + "\n" +
		sha256Hex(in.Payload)
}

func credentialScope(in SignInput) string {
	return in.DateStamp + "/" + in.Region + "/" + service + "/aws4_request"
}

func stringToSign(in SignInput) string {
	return algorithm + "\n" +
		in.AmzDate + "\n" +
		credentialScope(in) + "\n" +
		sha256Hex([]byte(canonicalRequest(in)))
}

// signingKey chains four HMAC-SHA256 derivations:
// "AWS4"+secret -> date -> region -> service -> "aws4_request".
func signingKey(secretKey, dateStamp, region string) []byte {
	k := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	k = hmacSHA256(k, region)
	k = hmacSHA256(k, service)
	return hmacSHA256(k, "aws4_request")
}

// Signature returns the hex-encoded request signature.
func Signature(secretKey string, in SignInput) string {
	key := signingKey(secretKey, in.DateStamp, in.Region)
	return hex.EncodeToString(hmacSHA256(key, stringToSign(in)))
}

// AuthorizationHeader builds the Authorization header value embedding
// credential scope, signed-header list and signature.
func AuthorizationHeader(accessKey, secretKey string, in SignInput) string {
	return algorithm +
		" Credential=" + accessKey + "/" + credentialScope(in) +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + Signature(secretKey, in)
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
