package validator

import "github.com/gin-gonic/gin"

// BindJSON decodes the JSON body into obj, runs the gin `binding` rules and
// then the `validate` rules. Messages follow the Accept-Language header.
func BindJSON(c *gin.Context, obj any) error {
	lang := c.GetHeader("Accept-Language")
	if err := c.ShouldBindJSON(obj); err != nil {
		return Translate(err, lang)
	}
	return Struct(obj, lang)
}
