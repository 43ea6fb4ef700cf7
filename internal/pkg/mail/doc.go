// Package mail sends the transactional e-mails medicore emits (welcome and
// password reset). Callers depend on Mail; SMTP delivers over net/smtp and
// Breaker stops hammering a mail server that keeps failing.
package mail
