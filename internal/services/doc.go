// Package services contains the business logic between the HTTP
// handlers and the dataset/analytics packages. Services own parameter
// defaulting and validation; handlers only translate HTTP.
package services
