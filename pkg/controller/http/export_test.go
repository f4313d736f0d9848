package http

var VerifyGitHubSignature = verifyGitHubSignature

var RequestOrigin = requestOrigin
