// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pdiddy/iac-rag/pkg/types"
)

// WriteFile writes records to path as JSON Lines, creating parent
// directories. Existing content is replaced.
func WriteFile(fsys afero.Fs, path string, records []types.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return fmt.Errorf("validating record %d: %w", i, err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}

	return afero.WriteFile(fsys, path, buf.Bytes(), 0o644)
}

// SampleRecords returns a small knowledge base covering common AWS
// resources. It seeds new projects and the comparison demo.
func SampleRecords() []types.Record {
	return []types.Record{
		{
			Name:         "S3 Bucket with Versioning",
			Keywords:     []string{"aws", "s3", "bucket", "versioning", "storage"},
			SourcePrompt: "Create an S3 bucket with versioning enabled",
			Code: `resource "aws_s3_bucket" "this" {
  bucket = "example-bucket"
}

resource "aws_s3_bucket_versioning" "this" {
  bucket = aws_s3_bucket.this.id
  versioning_configuration {
    status = "Enabled"
  }
}`,
		},
		{
			Name:         "EC2 Instance with Security Group",
			Keywords:     []string{"ec2", "instance", "security_group", "ingress", "ssh"},
			SourcePrompt: "Provision an EC2 instance behind a security group that allows SSH",
			Code: `resource "aws_security_group" "ssh" {
  name = "allow-ssh"
  ingress {
    from_port   = 22
    to_port     = 22
    protocol    = "tcp"
    cidr_blocks = ["0.0.0.0/0"]
  }
}

resource "aws_instance" "web" {
  ami                    = "ami-0abcdef1234567890"
  instance_type          = "t3.micro"
  vpc_security_group_ids = [aws_security_group.ssh.id]
}`,
		},
		{
			Name:         "VPC with Public and Private Subnets",
			Keywords:     []string{"vpc", "subnet", "public_subnet", "private_subnet", "networking"},
			SourcePrompt: "Build a VPC with public and private subnets",
			Code: `resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}

resource "aws_subnet" "public" {
  vpc_id                  = aws_vpc.main.id
  cidr_block              = "10.0.1.0/24"
  map_public_ip_on_launch = true
}

resource "aws_subnet" "private" {
  vpc_id     = aws_vpc.main.id
  cidr_block = "10.0.2.0/24"
}`,
		},
		{
			Name:         "Application Load Balancer",
			Keywords:     []string{"alb", "load_balancer", "listener", "target_group"},
			SourcePrompt: "Create an application load balancer with an HTTP listener",
			Code: `resource "aws_lb" "app" {
  name               = "app-lb"
  load_balancer_type = "application"
  subnets            = var.subnet_ids
}

resource "aws_lb_target_group" "app" {
  name     = "app-tg"
  port     = 80
  protocol = "HTTP"
  vpc_id   = var.vpc_id
}

resource "aws_lb_listener" "http" {
  load_balancer_arn = aws_lb.app.arn
  port              = 80
  protocol          = "HTTP"
  default_action {
    type             = "forward"
    target_group_arn = aws_lb_target_group.app.arn
  }
}`,
		},
		{
			Name:         "Lambda Function with IAM Role",
			Keywords:     []string{"lambda", "function", "iam_role", "serverless"},
			SourcePrompt: "Deploy a Lambda function with an execution role",
			Code: `resource "aws_iam_role" "lambda" {
  name               = "lambda-exec"
  assume_role_policy = data.aws_iam_policy_document.assume.json
}

resource "aws_lambda_function" "fn" {
  function_name = "handler"
  role          = aws_iam_role.lambda.arn
  runtime       = "python3.12"
  handler       = "main.handler"
  filename      = "lambda.zip"
}`,
		},
		{
			Name:         "DynamoDB Table",
			Keywords:     []string{"dynamodb", "table", "hash_key", "nosql"},
			SourcePrompt: "Create a DynamoDB table with a string hash key",
			Code: `resource "aws_dynamodb_table" "items" {
  name         = "items"
  billing_mode = "PAY_PER_REQUEST"
  hash_key     = "id"
  attribute {
    name = "id"
    type = "S"
  }
}`,
		},
	}
}
