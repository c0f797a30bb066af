// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tokenize

import "regexp"

// service maps a colloquial service name to its canonical resource type.
type service struct {
	name     string
	resource string
	pattern  *regexp.Regexp
}

// serviceNames lists the colloquial names prompts use instead of exact
// resource types, in a fixed order so detection is deterministic.
var serviceNames = [][2]string{
	{"s3", "aws_s3_bucket"},
	{"bucket", "aws_s3_bucket"},
	{"ec2", "aws_instance"},
	{"instance", "aws_instance"},
	{"vpc", "aws_vpc"},
	{"subnet", "aws_subnet"},
	{"lambda", "aws_lambda_function"},
	{"function", "aws_lambda_function"},
	{"iam", "aws_iam_role"},
	{"role", "aws_iam_role"},
	{"policy", "aws_iam_policy"},
	{"dynamodb", "aws_dynamodb_table"},
	{"table", "aws_dynamodb_table"},
	{"rds", "aws_db_instance"},
	{"database", "aws_db_instance"},
	{"security group", "aws_security_group"},
	{"sg", "aws_security_group"},
	{"load balancer", "aws_lb"},
	{"alb", "aws_lb"},
	{"elb", "aws_elb"},
	{"route53", "aws_route53_zone"},
	{"dns", "aws_route53_zone"},
	{"cloudwatch", "aws_cloudwatch_log_group"},
	{"sns", "aws_sns_topic"},
	{"sqs", "aws_sqs_queue"},
	{"queue", "aws_sqs_queue"},
	{"elasticbeanstalk", "aws_elastic_beanstalk_environment"},
	{"beanstalk", "aws_elastic_beanstalk_environment"},
	{"ecs", "aws_ecs_cluster"},
	{"fargate", "aws_ecs_service"},
	{"eks", "aws_eks_cluster"},
	{"kubernetes", "aws_eks_cluster"},
}

// wordStart and wordEnd bound a whole-word match. Letters and digits of any
// script count as word characters, unlike RE2's ASCII-only \b.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

var services = compileServices(serviceNames)

func compileServices(pairs [][2]string) []service {
	out := make([]service, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, service{
			name:     p[0],
			resource: p[1],
			pattern:  regexp.MustCompile(wordStart + regexp.QuoteMeta(p[0]) + wordEnd),
		})
	}
	return out
}

// ServiceResource returns the canonical resource type for a colloquial
// service name, or "" when the name is unknown.
func ServiceResource(name string) string {
	for _, svc := range services {
		if svc.name == name {
			return svc.resource
		}
	}
	return ""
}
