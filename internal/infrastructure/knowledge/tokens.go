package knowledge

import (
	"regexp"
	"strings"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {}, "this": {}, "these": {}, "those": {},
	"have": {}, "can": {}, "could": {}, "should": {}, "would": {}, "may": {},
	"might": {}, "must": {}, "create": {}, "using": {}, "use": {}, "set": {},
	"get": {}, "make": {}, "do": {}, "does": {}, "did": {}, "done": {},
	"your": {}, "my": {}, "our": {}, "their": {}, "his": {}, "her": {},
}

var (
	tokenPattern    = regexp.MustCompile(`[a-zA-Z0-9]+(?:_[a-zA-Z0-9]+)*`)
	resourcePattern = regexp.MustCompile(`resource\s+"([^"]+)"`)
	awsTypePattern  = regexp.MustCompile(`aws_[a-z0-9_]+`)
)

// serviceAliases maps plain-English service mentions to the resource type
// they usually stand for, so a request like "create an S3 bucket" still hits
// resource nodes without naming aws_s3_bucket literally.
var serviceAliases = map[string]string{
	"s3":             "aws_s3_bucket",
	"bucket":         "aws_s3_bucket",
	"ec2":            "aws_instance",
	"instance":       "aws_instance",
	"vpc":            "aws_vpc",
	"subnet":         "aws_subnet",
	"lambda":         "aws_lambda_function",
	"function":       "aws_lambda_function",
	"iam":            "aws_iam_role",
	"role":           "aws_iam_role",
	"policy":         "aws_iam_policy",
	"dynamodb":       "aws_dynamodb_table",
	"table":          "aws_dynamodb_table",
	"rds":            "aws_db_instance",
	"database":       "aws_db_instance",
	"sg":             "aws_security_group",
	"alb":            "aws_lb",
	"elb":            "aws_elb",
	"route53":        "aws_route53_zone",
	"dns":            "aws_route53_zone",
	"cloudwatch":     "aws_cloudwatch_log_group",
	"sns":            "aws_sns_topic",
	"sqs":            "aws_sqs_queue",
	"queue":          "aws_sqs_queue",
	"ecs":            "aws_ecs_cluster",
	"fargate":        "aws_ecs_service",
	"eks":            "aws_eks_cluster",
	"kubernetes":     "aws_eks_cluster",
}

// tokenize lowercases text and extracts keyword tokens, dropping stopwords
// and tokens shorter than three characters. Underscore-joined terms also
// contribute their components, so "aws_s3_bucket" matches "bucket".
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, raw := range tokenPattern.FindAllString(text, -1) {
		tok := strings.ToLower(raw)
		addToken(tokens, tok)
		if strings.Contains(tok, "_") {
			for _, part := range strings.Split(tok, "_") {
				addToken(tokens, part)
			}
		}
	}
	return tokens
}

func addToken(tokens map[string]struct{}, tok string) {
	if len(tok) < 3 {
		return
	}
	if _, stop := stopwords[tok]; stop {
		return
	}
	tokens[tok] = struct{}{}
}

// extractResourceTypes collects the resource types declared in an HCL body.
func extractResourceTypes(content string) []string {
	seen := make(map[string]struct{})
	var types []string
	for _, m := range resourcePattern.FindAllStringSubmatch(content, -1) {
		t := strings.ToLower(strings.TrimSpace(m[1]))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	return types
}

// detectResources finds resource types mentioned by a request, either
// literally (aws_* tokens) or through a service alias.
func detectResources(text string) map[string]struct{} {
	lower := strings.ToLower(text)
	resources := make(map[string]struct{})
	for _, t := range awsTypePattern.FindAllString(lower, -1) {
		resources[t] = struct{}{}
	}
	for _, raw := range tokenPattern.FindAllString(lower, -1) {
		if mapped, ok := serviceAliases[raw]; ok {
			resources[mapped] = struct{}{}
		}
	}
	return resources
}

// requestTerms is the tokenized form of one request, computed once per query.
type requestTerms struct {
	tokens    map[string]struct{}
	resources map[string]struct{}
}

func parseRequest(text string) requestTerms {
	return requestTerms{
		tokens:    tokenize(text),
		resources: detectResources(text),
	}
}

func (r requestTerms) empty() bool {
	return len(r.tokens) == 0 && len(r.resources) == 0
}

// size is the number of distinct request-derived terms.
func (r requestTerms) size() int {
	n := len(r.tokens) + len(r.resources)
	for res := range r.resources {
		if _, dup := r.tokens[res]; dup {
			n--
		}
	}
	return n
}
